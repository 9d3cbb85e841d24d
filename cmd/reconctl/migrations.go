package main

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// createMigrateInstance opens the migration source of this build against
// dbURL.
func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	fsys, origin, err := migrationSource()
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations from %s: %w", origin, err)
	}
	fmt.Printf("Running migrations from %s\n", origin)
	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

// listMigrationFiles returns the up migrations in version order.
func listMigrationFiles() ([]string, error) {
	fsys, origin, err := migrationSource()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations from %s: %w", origin, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
