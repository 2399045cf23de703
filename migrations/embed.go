// Package migrations holds the SQL schema applied on service start.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
