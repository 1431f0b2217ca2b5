package guard

import (
	"fmt"

	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// Action tells the consumer what to render for a decision.
type Action string

const (
	ShowContent       Action = "show_content"
	ShowUpgradePrompt Action = "show_upgrade_prompt"
	ShowBillingPrompt Action = "show_billing_prompt"
	ShowQuotaPrompt   Action = "show_quota_prompt"
)

// Outcome is the consumer-facing rendering of a Decision.
type Outcome struct {
	Action  Action `json:"action"`
	Message string `json:"message,omitempty"`

	// Quota figures, set for ShowQuotaPrompt.
	Limit      plan.Limit `json:"limit,omitempty"`
	Current    int64      `json:"current"`
	Max        int64      `json:"max"`
	Remaining  int64      `json:"remaining"`
	Unverified bool       `json:"unverified,omitempty"`

	// UpgradeTo is the lowest plan that lifts the restriction, when one exists.
	UpgradeTo     plan.ID `json:"upgrade_to,omitempty"`
	UpgradeToName string  `json:"upgrade_to_name,omitempty"`
}

// Resolve maps a decision to the action a consumer should take.
// Only Allowed renders content; the zero Decision resolves to an upgrade prompt
// without a target plan.
func Resolve(catalog *plan.Catalog, d entitlement.Decision) Outcome {
	switch d.Kind {
	case entitlement.Allowed:
		return Outcome{Action: ShowContent}

	case entitlement.DeniedBySubscriptionInactive:
		return Outcome{
			Action:  ShowBillingPrompt,
			Message: "Your subscription is inactive. Update your billing details to continue.",
		}

	case entitlement.QuotaExceeded:
		o := Outcome{Action: ShowQuotaPrompt}
		if d.Quota == nil {
			o.Message = "Usage limit reached."
			return o
		}
		o.Limit = d.Quota.Limit
		o.Max = d.Quota.Max
		if d.Quota.Unverified {
			o.Unverified = true
			o.Message = "Usage could not be verified right now. Please try again shortly."
			return o
		}
		o.Current = d.Quota.Current
		o.Remaining = d.Quota.Remaining()
		o.Message = fmt.Sprintf("You have used %d of %d %s this period.", o.Current, o.Max, d.Quota.Limit)
		if catalog != nil {
			if p, ok := catalog.UpgradeForLimit(d.PlanID, d.Quota.Limit); ok {
				o.UpgradeTo, o.UpgradeToName = p.ID, p.Name
				o.Message += fmt.Sprintf(" Upgrade to %s for more.", p.Name)
			}
		}
		return o
	}

	o := Outcome{Action: ShowUpgradePrompt, Message: "This feature is not available on your plan."}
	if catalog != nil {
		if p, ok := catalog.UpgradeFor(d.PlanID, d.Category, d.Feature); ok {
			o.UpgradeTo, o.UpgradeToName = p.ID, p.Name
			o.Message = fmt.Sprintf("Upgrade to %s to unlock %s.", p.Name, d.Feature)
		}
	}
	return o
}
