// Package migrations embeds the goose SQL migration files applied to the
// history store's Postgres schema.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
