package migrations

import "embed"

// FS contains embedded SQLite migrations for local player storage.
//
//go:embed *.sql
var FS embed.FS
