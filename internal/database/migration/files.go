package migration

import (
	"fmt"
	"io/fs"
)

// Files returns the embedded migration files rooted at their directory.
func Files() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return sub, nil
}
