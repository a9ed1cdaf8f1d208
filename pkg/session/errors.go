package session

import "errors"

var (
	ErrUnauthenticated = errors.New("session: unauthenticated")
	ErrNoSession       = errors.New("session: no session in context")
	ErrMissingSecret   = errors.New("session: signing secret is required")
	ErrLookupFailed    = errors.New("session: subscription lookup failed")
)
