// Package migrations embeds the SQLite schema applied by Store.ApplyMigrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
