// Package migrations embeds the numbered schema files applied by
// "gestao-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
