// Package migrations holds the ordered SQL schema files applied by the database package.
package migrations

import "embed"

// FS contains every NNN_name.sql migration
//
//go:embed *.sql
var FS embed.FS
