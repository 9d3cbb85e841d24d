//go:build embed_migrations

package main

import (
	"fmt"
	"io/fs"

	"github.com/territoryops/recon/db"
)

// migrationSource serves the migrations compiled into the binary.
func migrationSource() (fs.FS, string, error) {
	sub, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get embedded migrations: %w", err)
	}
	return sub, "embedded db/migrations", nil
}
