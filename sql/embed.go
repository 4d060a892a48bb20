// Package migrations embeds the goose schema migrations for the
// self-hosted institution directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
