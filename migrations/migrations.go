// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and by repository tests.
package migrations

import "embed"

// FS holds every *.sql migration in golang-migrate naming form.
//
//go:embed *.sql
var FS embed.FS
