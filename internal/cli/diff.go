package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

func newDiffCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:     "diff <from> <to>",
		Short:   "Show what moving between two plans gains and loses",
		Example: "  entitlements diff professional basic",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(cmd.Context(), catalogPath)
			if err != nil {
				return err
			}

			from, err := catalog.Plan(plan.ID(args[0]))
			if err != nil {
				return err
			}
			to, err := catalog.Plan(plan.ID(args[1]))
			if err != nil {
				return err
			}

			printComparison(cmd.OutOrStdout(), from, to, plan.Compare(&from, &to))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (default: built-in catalog)")
	return cmd
}

func printComparison(w io.Writer, from, to plan.Plan, c *plan.Comparison) {
	fmt.Fprintf(w, "%s -> %s\n", from.Name, to.Name)

	for _, ref := range c.GainedFeatures {
		fmt.Fprintf(w, "  + %s.%s\n", ref.Category, ref.Feature)
	}
	for _, ref := range c.LostFeatures {
		fmt.Fprintf(w, "  - %s.%s\n", ref.Category, ref.Feature)
	}
	for _, limit := range slices.Sorted(maps.Keys(c.IncreasedLimits)) {
		ch := c.IncreasedLimits[limit]
		fmt.Fprintf(w, "  ↑ %s: %s -> %s\n", limit, formatLimit(ch.From), formatLimit(ch.To))
	}
	for _, limit := range slices.Sorted(maps.Keys(c.DecreasedLimits)) {
		ch := c.DecreasedLimits[limit]
		fmt.Fprintf(w, "  ↓ %s: %s -> %s\n", limit, formatLimit(ch.From), formatLimit(ch.To))
	}

	if c.HasLosses() {
		fmt.Fprintln(w, "warning: this change removes features or lowers limits")
	}
}

func formatLimit(v int64) string {
	if v == plan.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(v, 10)
}
