package entitlement

import "errors"

var (
	ErrNilCatalog     = errors.New("entitlement: catalog is required")
	ErrNilTracker     = errors.New("entitlement: usage tracker is required")
	ErrInvalidRequest = errors.New("entitlement: invalid request")
	ErrNoSubject      = errors.New("entitlement: no subject in context")
)
