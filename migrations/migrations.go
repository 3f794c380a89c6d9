// Package migrations embeds the database schema migration files.
package migrations

import "embed"

// Files contains the SQL migration files applied at startup.
//
//go:embed *.sql
var Files embed.FS
