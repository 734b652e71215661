package ephemeraldb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuku/ephemeraldb/internal/dialect"
	"github.com/yuku/ephemeraldb/internal/ident"
)

// poolCloseGrace bounds how long teardown waits for pgxpool.Close, which
// blocks until every acquired connection has been released. A test that
// leaked an acquired connection must not stall its own teardown; the leaked
// session is forcibly terminated by the drop that follows.
const poolCloseGrace = 500 * time.Millisecond

// SetupConnection creates an ephemeral database, applies the configured
// migrations, and returns a single connection bound to it together with the
// guard that destroys it.
//
// On any failure after the database was created, a best-effort drop runs
// before the error is returned, so a half-initialized database is never left
// on the server. The returned error wraps the underlying cause in a
// *SetupError.
//
// The connection must not be used after the guard's Teardown; the guard
// closes it as the first step of teardown.
func SetupConnection(ctx context.Context, cfg *Config) (*Cleanup, *pgx.Conn, error) {
	d, db, err := provisionDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	conn, err := pgx.Connect(ctx, db.URL())
	if err != nil {
		bestEffortDrop(ctx, cfg.Admin, d, db.Name)
		return nil, nil, &SetupError{Stage: StagePool, Database: db.Name, Err: classifyPool(err)}
	}

	if err := runMigrations(ctx, conn, cfg.Migrations); err != nil {
		_ = conn.Close(ctx)
		bestEffortDrop(ctx, cfg.Admin, d, db.Name)
		return nil, nil, &SetupError{Stage: StageMigration, Database: db.Name, Err: err}
	}

	cleanup := &Cleanup{
		admin:   cfg.Admin,
		dialect: d,
		db:      db,
		closeResource: func() {
			// Teardown must not use the caller's context: it may already be
			// canceled by the time the deferred call runs.
			_ = conn.Close(context.Background())
		},
	}
	return cleanup, conn, nil
}

// SetupPool is like SetupConnection but returns a connection pool bound to
// the new database, sized by pc.
func SetupPool(ctx context.Context, cfg *Config, pc PoolConfig) (*Cleanup, *pgxpool.Pool, error) {
	if err := pc.Validate(); err != nil {
		return nil, nil, err
	}

	d, db, err := provisionDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := migrateDatabase(ctx, db, cfg.Migrations); err != nil {
		bestEffortDrop(ctx, cfg.Admin, d, db.Name)
		return nil, nil, &SetupError{Stage: StageMigration, Database: db.Name, Err: err}
	}

	poolCfg, err := pgxpool.ParseConfig(db.URL())
	if err != nil {
		bestEffortDrop(ctx, cfg.Admin, d, db.Name)
		return nil, nil, &SetupError{Stage: StagePool, Database: db.Name, Err: classifyPool(err)}
	}
	poolCfg.MaxConns = pc.maxConns()
	if pc.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = pc.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		bestEffortDrop(ctx, cfg.Admin, d, db.Name)
		return nil, nil, &SetupError{Stage: StagePool, Database: db.Name, Err: classifyPool(err)}
	}

	cleanup := &Cleanup{
		admin:         cfg.Admin,
		dialect:       d,
		db:            db,
		closeResource: func() { closePoolWithGrace(pool) },
	}
	return cleanup, pool, nil
}

// provisionDatabase validates the config, picks a name, and creates the
// database. It is the Created transition; everything after it must either
// reach the guard or drop the database again.
func provisionDatabase(ctx context.Context, cfg *Config) (dialect.Dialect, Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Database{}, err
	}
	d, err := cfg.dialect()
	if err != nil {
		return nil, Database{}, err
	}

	name := cfg.DatabaseName
	if name == "" {
		name, err = ident.Generate(cfg.namePrefix())
		if err != nil {
			return nil, Database{}, &ConfigError{Reason: err.Error()}
		}
	}
	db := Database{Name: name, Origin: cfg.Origin, Backend: cfg.Backend}

	if err := createDatabase(ctx, cfg.Admin, d, name); err != nil {
		return nil, Database{}, &SetupError{Stage: StageProvision, Database: name, Err: err}
	}
	return d, db, nil
}

// migrateDatabase applies migrations over a dedicated connection to the new
// database, so the pool handed to the caller only ever sees a fully migrated
// schema.
func migrateDatabase(ctx context.Context, db Database, migrations []Migration) error {
	if len(migrations) == 0 {
		return nil
	}
	conn, err := pgx.Connect(ctx, db.URL())
	if err != nil {
		return fmt.Errorf("connect to %q for migrations: %w", db.Name, err)
	}
	defer func() { _ = conn.Close(ctx) }()
	return runMigrations(ctx, conn, migrations)
}

// bestEffortDrop cleans up after a failed setup. Its own failure is reported,
// not propagated, so it never masks the error that triggered it.
func bestEffortDrop(ctx context.Context, admin *pgxpool.Pool, d dialect.Dialect, name string) {
	if err := dropDatabase(ctx, admin, d, name); err != nil {
		log.Printf("ephemeraldb: best-effort drop of database %q failed: %v", name, err)
	}
}

func closePoolWithGrace(pool *pgxpool.Pool) {
	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(poolCloseGrace):
	}
}
