// Package migrations embeds the schema so tests and binaries run without a checkout.
package migrations

import "embed"

// FS holds every NNN_name.sql migration
//
//go:embed *.sql
var FS embed.FS
