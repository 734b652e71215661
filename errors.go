package ephemeraldb

import "fmt"

// ConfigError reports an invalid configuration. It is returned before any
// network I/O takes place.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Reason
}

// ProvisionErrorKind classifies why creating a database failed.
type ProvisionErrorKind int

const (
	// ProvisionConnectionFailed covers everything that is not one of the
	// more specific kinds below, most commonly a failure to reach the
	// server at all.
	ProvisionConnectionFailed ProvisionErrorKind = iota

	// ProvisionNameCollision means a database with the generated name
	// already exists on the server.
	ProvisionNameCollision

	// ProvisionPermissionDenied means the admin connection's role is not
	// allowed to create databases.
	ProvisionPermissionDenied
)

func (k ProvisionErrorKind) String() string {
	switch k {
	case ProvisionNameCollision:
		return "name collision"
	case ProvisionPermissionDenied:
		return "permission denied"
	default:
		return "connection failed"
	}
}

// ProvisionError reports a failure to create a database.
type ProvisionError struct {
	Kind     ProvisionErrorKind
	Database string
	Err      error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("create database %q: %s: %v", e.Database, e.Kind, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// MigrationError reports the first migration step that failed. Index is the
// zero-based position of the step in the configured sequence.
type MigrationError struct {
	Index int
	Name  string
	Err   error
}

func (e *MigrationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("migration %d (%s) failed: %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("migration %d failed: %v", e.Index, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// PoolErrorKind classifies why constructing the resource failed.
type PoolErrorKind int

const (
	PoolConnectionFailed PoolErrorKind = iota
	PoolTimeout
)

func (k PoolErrorKind) String() string {
	if k == PoolTimeout {
		return "timeout"
	}
	return "connection failed"
}

// PoolError reports a failure to build the connection or pool bound to the
// new database.
type PoolError struct {
	Kind PoolErrorKind
	Err  error
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("build resource: %s: %v", e.Kind, e.Err)
}

func (e *PoolError) Unwrap() error { return e.Err }

// SetupStage identifies which phase of setup failed.
type SetupStage int

const (
	StageProvision SetupStage = iota
	StageMigration
	StagePool
)

func (s SetupStage) String() string {
	switch s {
	case StageProvision:
		return "provision"
	case StageMigration:
		return "migration"
	default:
		return "pool"
	}
}

// SetupError wraps any failure surfaced by SetupConnection or SetupPool.
// When the failure happened after the database was created, a best-effort
// drop has already been attempted; Database names the database the attempt
// was made for.
type SetupError struct {
	Stage    SetupStage
	Database string
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup of database %q failed at %s stage: %v", e.Database, e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// TeardownStage identifies which phase of teardown failed.
type TeardownStage int

const (
	TeardownForceDisconnect TeardownStage = iota
	TeardownDrop
)

func (s TeardownStage) String() string {
	if s == TeardownForceDisconnect {
		return "force disconnect"
	}
	return "drop"
}

// TeardownError reports a failure to destroy a database. Dropping a database
// that is already absent is success, not a TeardownError.
type TeardownError struct {
	Stage    TeardownStage
	Database string
	Err      error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown of database %q failed at %s stage: %v", e.Database, e.Stage, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
