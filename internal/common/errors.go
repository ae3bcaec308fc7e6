package common

import "errors"

var (
	// Local lookups.
	ErrNotFound = errors.New("not found")

	// Share link errors.
	ErrInvalidShareURL = errors.New("invalid share url")
	ErrInvalidSecret   = errors.New("invalid secret key")

	// Owned file validation.
	ErrInvalidLimit = errors.New("download limit must be at least 1")
)
