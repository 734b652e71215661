package dialect

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes used to classify provisioning failures.
const (
	pgDuplicateDatabase     = "42P04"
	pgInsufficientPrivilege = "42501"
)

// Postgres implements Dialect for PostgreSQL 14+.
type Postgres struct{}

func (Postgres) CreateDatabase(name string) string {
	return fmt.Sprintf(`CREATE DATABASE %s`, pgx.Identifier{name}.Sanitize())
}

func (Postgres) DropDatabase(name string) string {
	return fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, pgx.Identifier{name}.Sanitize())
}

func (Postgres) TerminateSessions() string {
	return `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`
}

func (Postgres) DatabaseExists() string {
	return `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1 AND NOT datistemplate)`
}

func (Postgres) ListDatabases() string {
	return `SELECT datname FROM pg_database WHERE datname LIKE $1 AND NOT datistemplate`
}

func (Postgres) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (Postgres) IsDuplicateDatabase(err error) bool {
	return hasSQLState(err, pgDuplicateDatabase)
}

func (Postgres) IsInsufficientPrivilege(err error) bool {
	return hasSQLState(err, pgInsufficientPrivilege)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
