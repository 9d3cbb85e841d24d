//go:build !embed_migrations

package main

import (
	"io/fs"
	"os"
)

const defaultMigrationsPath = "db/migrations"

func migrationsPath() string {
	if path := os.Getenv("RECON_MIGRATIONS_PATH"); path != "" {
		return path
	}
	return defaultMigrationsPath
}

// migrationSource reads migrations from RECON_MIGRATIONS_PATH, or
// db/migrations relative to the working directory.
func migrationSource() (fs.FS, string, error) {
	path := migrationsPath()
	return os.DirFS(path), "file://" + path, nil
}
