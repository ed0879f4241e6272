package domain

import "errors"

// Sentinel errors for the domain layer. Cross-tenant lookups surface as
// ErrNotFound so existence never leaks across tenants.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
)
