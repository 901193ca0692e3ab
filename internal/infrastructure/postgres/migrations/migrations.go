// Package migrations embeds the ledger schema.
package migrations

import "embed"

// FS holds the golang-migrate files. Use Dir as the source directory.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations.
const Dir = "."
