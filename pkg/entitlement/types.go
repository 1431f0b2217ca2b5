package entitlement

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// Status is the state of the subject's subscription.
type Status string

const (
	StatusActive  Status = "active"
	StatusTrial   Status = "trial"
	StatusExpired Status = "expired"
)

// Active reports whether the subscription grants plan features.
// Only active and trial do; expired and unrecognized statuses do not.
func (s Status) Active() bool {
	return s == StatusActive || s == StatusTrial
}

// Subject is who a decision is made for. It is built per request and never stored.
type Subject struct {
	UserID     uuid.UUID `json:"user_id"`
	PlanID     plan.ID   `json:"plan_id"`
	SuperAdmin bool      `json:"super_admin,omitempty"`
	Status     Status    `json:"status"`
}

// Request is the flat input of a single evaluation.
// Limit is optional; when set, the evaluation consumes one unit of it.
type Request struct {
	UserID     uuid.UUID     `json:"user_id"`
	PlanID     plan.ID       `json:"plan_id"`
	SuperAdmin bool          `json:"super_admin,omitempty"`
	Status     Status        `json:"status"`
	Category   plan.Category `json:"category"`
	Feature    plan.Feature  `json:"feature"`
	Limit      plan.Limit    `json:"limit,omitempty"`
}

// Subject returns the subject part of the request.
func (r Request) Subject() Subject {
	return Subject{
		UserID:     r.UserID,
		PlanID:     r.PlanID,
		SuperAdmin: r.SuperAdmin,
		Status:     r.Status,
	}
}

// Kind is the outcome of an evaluation.
type Kind string

const (
	Allowed                      Kind = "allowed"
	DeniedByPlan                 Kind = "denied_by_plan"
	DeniedBySubscriptionInactive Kind = "denied_by_subscription_inactive"
	QuotaExceeded                Kind = "quota_exceeded"
)

// Quota describes the limit an evaluation was checked against.
type Quota struct {
	Limit   plan.Limit `json:"limit"`
	Current int64      `json:"current"`
	Max     int64      `json:"max"`

	// Unverified is set when the usage store failed and the evaluation was denied
	// without knowing the real usage. Current is meaningless then.
	Unverified bool `json:"unverified,omitempty"`
}

// Remaining returns how many units are left, or plan.Unlimited.
func (q Quota) Remaining() int64 {
	if q.Max == plan.Unlimited {
		return plan.Unlimited
	}
	return max(q.Max-q.Current, 0)
}

// Decision is the result of one evaluation. It is computed on every call and
// must not be cached across requests.
type Decision struct {
	Kind     Kind          `json:"kind"`
	PlanID   plan.ID       `json:"plan_id,omitempty"`
	Category plan.Category `json:"category,omitempty"`
	Feature  plan.Feature  `json:"feature,omitempty"`

	// Quota is set whenever a limit was requested, for allowed decisions too.
	Quota *Quota `json:"quota,omitempty"`

	// Override is set when a super-admin bypassed every check.
	Override bool `json:"override,omitempty"`
}

// Allowed reports whether the decision grants access.
// The zero Decision, returned alongside errors, is not allowed.
func (d Decision) Allowed() bool {
	return d.Kind == Allowed
}
