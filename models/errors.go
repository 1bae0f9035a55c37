package models

import "errors"

// Error taxonomy shared by every component. Callers wrap these with
// fmt.Errorf("%w: ...") and the HTTP layer maps them to status codes.
var (
	// ErrNotFound means a structure, entry, action or field does not exist (yet).
	ErrNotFound = errors.New("not found")
	// ErrStaleReference means an action or value points at a field or field type
	// that is no longer part of the current structure.
	ErrStaleReference = errors.New("stale reference")
	// ErrValidation means the request was malformed and no store access happened.
	ErrValidation = errors.New("validation failed")
	// ErrStoreFailure means the underlying key-value operation failed.
	ErrStoreFailure = errors.New("store failure")
)
