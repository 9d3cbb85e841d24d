// Package db embeds the SQL migrations so release builds do not depend on
// the db/migrations directory being present at runtime.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
