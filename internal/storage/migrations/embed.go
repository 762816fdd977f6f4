// Package migrations embeds the schema files for the progress database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
