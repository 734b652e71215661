package ephemeraldb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuku/ephemeraldb/internal/dialect"
	"github.com/yuku/ephemeraldb/internal/ident"
)

// Database identifies an ephemeral database for the lifetime of a test. It is
// immutable once created.
type Database struct {
	Name    string
	Origin  string
	Backend Backend
}

// URL returns the connection string for the database.
func (d Database) URL() string {
	return d.Origin + "/" + d.Name
}

// Exists reports whether the database currently exists on the server.
func (d Database) Exists(ctx context.Context, admin *pgxpool.Pool) (bool, error) {
	dial, err := (&Config{Backend: d.Backend}).dialect()
	if err != nil {
		return false, err
	}
	return databaseExists(ctx, admin, dial, d.Name)
}

// Cleanup owns the obligation to destroy one ephemeral database. Its Teardown
// method runs the teardown at most once, no matter how many times it is
// invoked, so deferring it next to an explicit call is safe.
//
// The guard holds a reference to the admin pool but never closes it.
type Cleanup struct {
	admin   *pgxpool.Pool
	dialect dialect.Dialect
	db      Database

	// closeResource drains the connection or pool handed out by setup. It
	// runs before the drop so that forced session termination stays a
	// safety net rather than the normal path.
	closeResource func()

	once sync.Once
	mu   sync.Mutex
	err  error
}

// Database returns the descriptor of the database this guard owns.
func (c *Cleanup) Database() Database {
	return c.db
}

// Teardown closes the resource handed out by setup and drops the database.
// Only the first call does anything; later calls return nil without touching
// the server.
//
// Teardown never panics. A failure is returned, recorded for inspection via
// Err, and logged, but tests typically invoke Teardown through defer where
// the return value is discarded; the side channels exist so those failures
// are still visible without destabilizing an unwind already in progress.
func (c *Cleanup) Teardown(ctx context.Context) error {
	first := false
	c.once.Do(func() {
		first = true
		if c.closeResource != nil {
			c.closeResource()
		}
		if err := dropDatabase(ctx, c.admin, c.dialect, c.db.Name); err != nil {
			c.setErr(err)
			log.Printf("ephemeraldb: teardown of database %q failed: %v", c.db.Name, err)
		}
	})
	if !first {
		return nil
	}
	return c.Err()
}

// Err returns the outcome of the teardown, or nil if teardown has not run or
// succeeded.
func (c *Cleanup) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Cleanup) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Sweep drops every database on the server whose name was generated with the
// given prefix. A process that crashes before its guards run leaves databases
// behind; Sweep reclaims them, typically from a TestMain of a later run.
//
// It returns the names it dropped. Databases that could not be dropped are
// reported in the joined error and do not prevent the rest from being swept.
func Sweep(ctx context.Context, admin *pgxpool.Pool, backend Backend, prefix string) ([]string, error) {
	prefix = strings.ToLower(prefix)
	if err := ident.CheckPrefix(prefix); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	d, err := (&Config{Backend: backend}).dialect()
	if err != nil {
		return nil, err
	}

	// Underscore is a LIKE wildcard, so the separator is escaped. Only names
	// shaped like Generate's output match; a fixed DatabaseName is the
	// caller's to manage.
	rows, err := admin.Query(ctx, d.ListDatabases(), prefix+`\_%`)
	if err != nil {
		return nil, fmt.Errorf("list databases with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan database name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list databases with prefix %q: %w", prefix, err)
	}

	var dropped []string
	var errs []error
	for _, name := range names {
		if err := dropDatabase(ctx, admin, d, name); err != nil {
			errs = append(errs, err)
			continue
		}
		dropped = append(dropped, name)
	}
	return dropped, errors.Join(errs...)
}
