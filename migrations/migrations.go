// Package migrations embeds the engine's database schema.
// Apply with db.Migrate at startup; goose tracks applied versions.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
