package optionstore

import "errors"

var (
	// ErrNotFound is returned when an option name is not stored.
	ErrNotFound = errors.New("optionstore: not found")

	// ErrQueryFailed wraps driver-level failures.
	ErrQueryFailed = errors.New("optionstore: query failed")
)
