package domain

import "errors"

var (
	// ErrUnknownCategory is a client input error: the key is not registered.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNotFound means no row matched the requested id.
	ErrNotFound = errors.New("product not found")
	// ErrStorageUnavailable wraps faults of the underlying store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedRecord marks corrupt personalization data. It is recovered from, never surfaced.
	ErrMalformedRecord = errors.New("malformed local record")
)
