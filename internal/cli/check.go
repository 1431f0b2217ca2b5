package cli

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/guard"
	"github.com/dmitrymomot/entitlements/pkg/plan"
	"github.com/dmitrymomot/entitlements/pkg/usage"
)

type checkResult struct {
	Attempt  int                  `json:"attempt"`
	Decision entitlement.Decision `json:"decision"`
	Outcome  guard.Outcome        `json:"outcome"`
}

func newCheckCommand() *cobra.Command {
	var (
		catalogPath string
		req         entitlement.Request
		planID      string
		status      string
		category    string
		feature     string
		limit       string
		repeat      int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run evaluations against a catalog with an in-memory usage store",
		Example: `  entitlements check --plan free --category system --feature whiteLabeling
  entitlements check --plan free --category aiTools --feature basicAI --limit maxAIRequests --repeat 11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(cmd.Context(), catalogPath)
			if err != nil {
				return err
			}

			tracker := usage.NewTracker(usage.NewMemoryStore(), usage.WithResets(catalog.Resets()))
			engine, err := entitlement.New(catalog, tracker)
			if err != nil {
				return err
			}

			req.UserID = uuid.New()
			req.PlanID = plan.ID(planID)
			req.Status = entitlement.Status(status)
			req.Category = plan.Category(category)
			req.Feature = plan.Feature(feature)
			req.Limit = plan.Limit(limit)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for i := range max(repeat, 1) {
				d, err := engine.Check(cmd.Context(), req)
				if err != nil {
					return err
				}
				if err := enc.Encode(checkResult{
					Attempt:  i + 1,
					Decision: d,
					Outcome:  guard.Resolve(catalog, d),
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&catalogPath, "catalog", "", "catalog file (default: built-in catalog)")
	f.StringVar(&planID, "plan", string(plan.Free), "plan id")
	f.StringVar(&status, "status", string(entitlement.StatusActive), "subscription status: active, trial or expired")
	f.BoolVar(&req.SuperAdmin, "super-admin", false, "evaluate as a super-admin")
	f.StringVar(&category, "category", "", "feature category")
	f.StringVar(&feature, "feature", "", "feature name")
	f.StringVar(&limit, "limit", "", "limit to consume, if any")
	f.IntVar(&repeat, "repeat", 1, "number of evaluations for the same user")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("feature")

	return cmd
}
