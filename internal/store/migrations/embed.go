// Package migrations embeds the SQL schema applied by store.SQLStore.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
