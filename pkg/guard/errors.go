package guard

import "errors"

var (
	ErrMissingSubject = errors.New("guard: request carries no subject")
	ErrInvalidBody    = errors.New("guard: invalid request body")
	ErrInvalidUserID  = errors.New("guard: invalid user id")
)
