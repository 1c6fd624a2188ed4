// Package migrations embeds the storefront schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
