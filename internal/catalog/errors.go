package catalog

import "errors"

var (
	// ErrUnknownDriver is returned by Open for a driver nobody registered.
	ErrUnknownDriver = errors.New("unknown catalog driver")

	// ErrNotFound is returned for ids the remote catalog does not know.
	ErrNotFound = errors.New("catalog entity not found")

	// ErrUnauthorized is returned when a shop's credentials are rejected.
	ErrUnauthorized = errors.New("catalog credentials rejected")
)
