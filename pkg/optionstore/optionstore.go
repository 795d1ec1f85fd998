// Package optionstore persists named global options, mirroring the
// host CMS options table.
//
// The engine keeps its two sticky-topic ID lists, the default forum ID
// and the default role name here. Values are opaque strings.
package optionstore

import "context"

// Store is the global-options surface the engine depends on.
type Store interface {
	// Get returns the value stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) (string, error)

	// Set stores value under name, creating or overwriting.
	Set(ctx context.Context, name, value string) error

	// Delete removes the option. Absent names are not an error.
	Delete(ctx context.Context, name string) error
}
