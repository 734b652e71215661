// Package dialect isolates the SQL statements and error codes that vary
// between database server backends. All statements operate on whole
// databases, never on their contents.
package dialect

// Dialect supplies the backend-specific statements needed to provision and
// destroy databases. Statements returned by TerminateSessions,
// DatabaseExists, and ListDatabases take the database name (or a LIKE
// pattern) as their single query parameter; CreateDatabase and DropDatabase
// interpolate the quoted name directly because DDL cannot be parameterized.
type Dialect interface {
	// CreateDatabase returns the statement that creates the named database.
	CreateDatabase(name string) string

	// DropDatabase returns the statement that drops the named database.
	// The statement must tolerate the database being already absent.
	DropDatabase(name string) string

	// TerminateSessions returns a statement that forcibly disconnects every
	// session attached to the database given as $1, excluding the session
	// executing the statement.
	TerminateSessions() string

	// DatabaseExists returns a query producing a single boolean telling
	// whether the database given as $1 exists.
	DatabaseExists() string

	// ListDatabases returns a query producing the names of all databases
	// matching the LIKE pattern given as $1.
	ListDatabases() string

	// QuoteIdentifier quotes a database name for direct interpolation into
	// DDL statements.
	QuoteIdentifier(name string) string

	// IsDuplicateDatabase reports whether err means the database already
	// exists.
	IsDuplicateDatabase(err error) bool

	// IsInsufficientPrivilege reports whether err means the current role may
	// not perform the operation.
	IsInsufficientPrivilege(err error) bool
}
