// Package testhelper provides server connections for the integration tests.
// Configuration comes from the environment so the suite runs unchanged
// against a local server or a CI service container.
package testhelper

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Origin returns the scheme and authority of the test server, without a
// database path, built from the standard PG* environment variables.
func Origin() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "postgres")
	password := getEnvOrDefault("PGPASSWORD", "postgres")

	if password != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s", user, password, host, port)
	}
	return fmt.Sprintf("postgres://%s@%s:%s", user, host, port)
}

// AdminPool returns a privileged pgxpool.Pool connected to the maintenance
// database of the test server. The pool is closed when the test finishes.
func AdminPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		connString = Origin() + "/postgres?sslmode=disable"
	}

	pool, err := pgxpool.New(context.Background(), connString)
	require.NoError(t, err, "failed to create admin pool")
	require.NoError(t, pool.Ping(context.Background()), "PostgreSQL not available")
	t.Cleanup(pool.Close)

	return pool
}

// DatabaseExists reports whether the named database exists on the server.
func DatabaseExists(t *testing.T, admin *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := admin.
		QueryRow(context.Background(), "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).
		Scan(&exists)
	require.NoError(t, err)
	return exists
}

// ListDatabases returns the names of all non-template databases on the
// server.
func ListDatabases(t *testing.T, admin *pgxpool.Pool) []string {
	t.Helper()
	rows, err := admin.Query(context.Background(),
		"SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
