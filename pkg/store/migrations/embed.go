// Package migrations embeds the SQL migration files applied to the
// PostgreSQL metadata store via golang-migrate's iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
