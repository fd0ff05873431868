// Package migrations embeds the SQLite schema migrations for practice
// storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for practice storage.
//
//go:embed *.sql
var FS embed.FS
