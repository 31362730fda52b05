package migrations

import "embed"

// FS contains the embedded ledger schema.
//
//go:embed *.sql
var FS embed.FS
