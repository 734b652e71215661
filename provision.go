package ephemeraldb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuku/ephemeraldb/internal/dialect"
)

// Teardown retries the terminate-then-drop sequence a bounded number of
// times. A session that reconnects between termination and the drop makes
// the drop fail; a fresh termination on the next attempt clears it.
const (
	dropAttempts   = 3
	dropRetryDelay = 100 * time.Millisecond
)

// createDatabase issues the create-database statement through the admin pool.
// The admin connection only ever operates on names this package generated or
// the caller explicitly configured.
func createDatabase(ctx context.Context, admin *pgxpool.Pool, d dialect.Dialect, name string) error {
	if _, err := admin.Exec(ctx, d.CreateDatabase(name)); err != nil {
		return &ProvisionError{Kind: classifyProvision(d, err), Database: name, Err: err}
	}
	return nil
}

func classifyProvision(d dialect.Dialect, err error) ProvisionErrorKind {
	switch {
	case d.IsDuplicateDatabase(err):
		return ProvisionNameCollision
	case d.IsInsufficientPrivilege(err):
		return ProvisionPermissionDenied
	default:
		return ProvisionConnectionFailed
	}
}

// dropDatabase destroys the named database. An already absent database is
// success, so racing or repeated teardown calls do not fail. The server
// refuses to drop a database with attached sessions, so each attempt first
// forcibly disconnects them.
func dropDatabase(ctx context.Context, admin *pgxpool.Pool, d dialect.Dialect, name string) error {
	exists, err := databaseExists(ctx, admin, d, name)
	if err != nil {
		return &TeardownError{Stage: TeardownDrop, Database: name, Err: err}
	}
	if !exists {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < dropAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(dropRetryDelay)
		}
		if _, err := admin.Exec(ctx, d.TerminateSessions(), name); err != nil {
			lastErr = &TeardownError{Stage: TeardownForceDisconnect, Database: name, Err: err}
			continue
		}
		if _, err := admin.Exec(ctx, d.DropDatabase(name)); err != nil {
			lastErr = &TeardownError{Stage: TeardownDrop, Database: name, Err: err}
			continue
		}
		return nil
	}
	return lastErr
}

func databaseExists(ctx context.Context, admin *pgxpool.Pool, d dialect.Dialect, name string) (bool, error) {
	var exists bool
	err := admin.QueryRow(ctx, d.DatabaseExists(), name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check database %q exists: %w", name, err)
	}
	return exists, nil
}

// IsSuperuser reports whether the admin pool is connected as a superuser.
// Useful for skipping integration tests against servers where the test role
// cannot create databases or terminate sessions.
func IsSuperuser(ctx context.Context, admin *pgxpool.Pool) (bool, error) {
	var super bool
	err := admin.QueryRow(ctx, `SELECT usesuper FROM pg_user WHERE usename = CURRENT_USER`).Scan(&super)
	if err != nil {
		return false, fmt.Errorf("check superuser: %w", err)
	}
	return super, nil
}

func classifyPool(err error) *PoolError {
	kind := PoolConnectionFailed
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = PoolTimeout
	}
	return &PoolError{Kind: kind, Err: err}
}
