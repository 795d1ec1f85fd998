// Package usermeta persists per-user key/value metadata, mirroring the
// host CMS user-meta table.
//
// The forum engine keeps subscription lists, bookmark lists, per-user
// counters and the host role list here. Values are opaque strings; list
// encoding lives in pkg/idset.
package usermeta

import "context"

// Store is the user-metadata surface the engine depends on.
type Store interface {
	// Get returns the single (first) value stored under key for the
	// user. Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, userID int64, key string) (string, error)

	// Set replaces all values under key with one value.
	Set(ctx context.Context, userID int64, key, value string) error

	// Delete removes every value under key. Absent keys are not an
	// error.
	Delete(ctx context.Context, userID int64, key string) error

	// UsersWithValueContaining returns the IDs of users whose value
	// under key contains needle as a list member. This is the reverse
	// index behind "who subscribes to entity X"; implementations scan
	// the meta table, so callers cache the result.
	UsersWithValueContaining(ctx context.Context, key, needle string) ([]int64, error)

	// Roles returns the host role names assigned to the user, in
	// stored order. An absent role list yields an empty slice.
	Roles(ctx context.Context, userID int64) ([]string, error)

	// SetRoles replaces the user's host role list.
	SetRoles(ctx context.Context, userID int64, roles []string) error
}
