// Package migrations embeds the goose SQL migrations of the users schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
