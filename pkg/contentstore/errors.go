package contentstore

import "errors"

var (
	// ErrNotFound is returned when an item or meta value does not exist.
	ErrNotFound = errors.New("contentstore: not found")

	// ErrInvalidItem is returned when an item is missing its type tag.
	ErrInvalidItem = errors.New("contentstore: invalid item")

	// ErrQueryFailed wraps driver-level failures.
	ErrQueryFailed = errors.New("contentstore: query failed")
)
