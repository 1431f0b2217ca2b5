package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog.yaml]",
		Short: "Check a plan catalog for structural parity",
		Long: `Loads a catalog and runs the same validation as service startup: all four
plans present with unique ranks, identical category, feature and limit keys
across plans, and valid limit values. Without an argument the built-in catalog
is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			catalog, err := loadCatalog(cmd.Context(), path)
			if err != nil {
				return err
			}

			schema := catalog.Schema()
			features := 0
			for _, category := range schema.Categories() {
				features += len(schema.Features(category))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog ok: %d plans, %d categories, %d features, %d limits\n",
				len(catalog.Plans()), len(schema.Categories()), features, len(schema.Limits()))
			for _, p := range catalog.Plans() {
				fmt.Fprintf(out, "  %d %-13s %s\n", p.Rank, p.ID, p.Name)
			}
			return nil
		},
	}
}
