package ephemeraldb

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Migration is a single schema step. Name is optional and only used in error
// messages.
type Migration struct {
	Name string
	SQL  string
}

// MigrationsFromFS loads migrations from the .sql files at the root of fsys,
// ordered by file name. Files without a .sql extension are ignored, so a
// migrations directory may carry a README or down-migrations under another
// suffix.
func MigrationsFromFS(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Name: strings.TrimSuffix(entry.Name(), ".sql"),
			SQL:  string(data),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Name < migrations[j].Name })
	return migrations, nil
}

// runMigrations applies the steps strictly in order over conn, which must be
// connected to the new database rather than through the admin pool. It aborts
// on the first failure without retrying; the caller is responsible for
// dropping the half-initialized database.
func runMigrations(ctx context.Context, conn *pgx.Conn, migrations []Migration) error {
	for i, m := range migrations {
		if _, err := conn.Exec(ctx, m.SQL); err != nil {
			return &MigrationError{Index: i, Name: m.Name, Err: err}
		}
	}
	return nil
}
