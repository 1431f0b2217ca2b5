package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// NewRootCommand assembles the entitlements command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "entitlements",
		Short: "Plan entitlement engine",
		Long: `entitlements decides which features and quotas a subscription plan grants.

It serves the decision API over HTTP and offers operator tools to validate
catalogs, compare plans and dry-run single evaluations.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(),
		newValidateCommand(),
		newCheckCommand(),
		newDiffCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
