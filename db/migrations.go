// Package db embeds the SQL migrations for each supported store driver.
package db

import "embed"

//go:embed migrations/postgres/*.sql
var PostgresFS embed.FS

//go:embed migrations/sqlite/*.sql
var SQLiteFS embed.FS
