package usermeta

import "errors"

var (
	// ErrNotFound is returned when a meta key is absent for the user.
	ErrNotFound = errors.New("usermeta: not found")

	// ErrQueryFailed wraps driver-level failures.
	ErrQueryFailed = errors.New("usermeta: query failed")
)
