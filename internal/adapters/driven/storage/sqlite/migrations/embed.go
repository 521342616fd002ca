// Package migrations embeds SQL migration files for the SQLite store.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
// Files are named <version>_<name>.up.sql and applied in version order.
//
//go:embed *.sql
var FS embed.FS
