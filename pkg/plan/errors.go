package plan

import "errors"

var (
	// Lookup errors. Both indicate a broken deployment rather than a bad request.
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownLimit = errors.New("unknown limit")

	// Catalog load errors
	ErrFailedToLoadCatalog = errors.New("failed to load plan catalog")
	ErrInvalidCatalog      = errors.New("invalid plan catalog")
	ErrMissingPlan         = errors.New("catalog does not define a canonical plan")
	ErrDuplicatePlan       = errors.New("plan defined more than once")
	ErrDuplicateRank       = errors.New("plans share the same rank")
	ErrSchemaMismatch      = errors.New("plans do not define the same categories, features and limits")
	ErrInvalidLimitValue   = errors.New("limit must be -1 (unlimited) or non-negative")
	ErrInvalidReset        = errors.New("invalid limit reset window")
	ErrEmptyName           = errors.New("category, feature and limit names cannot be empty")
)
