package ephemeraldb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/yuku/ephemeraldb/internal/dialect"
)

func TestClassifyProvision(t *testing.T) {
	d := dialect.Postgres{}

	tests := []struct {
		name string
		err  error
		want ProvisionErrorKind
	}{
		{
			name: "duplicate database",
			err:  &pgconn.PgError{Code: "42P04"},
			want: ProvisionNameCollision,
		},
		{
			name: "insufficient privilege",
			err:  &pgconn.PgError{Code: "42501"},
			want: ProvisionPermissionDenied,
		},
		{
			name: "wrapped duplicate database",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: "42P04"}),
			want: ProvisionNameCollision,
		},
		{
			name: "anything else",
			err:  errors.New("connection refused"),
			want: ProvisionConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classifyProvision(d, tt.err))
		})
	}
}

func TestClassifyPool(t *testing.T) {
	timeoutErr := fmt.Errorf("dial: %w", context.DeadlineExceeded)
	require.Equal(t, PoolTimeout, classifyPool(timeoutErr).Kind)
	require.Equal(t, PoolConnectionFailed, classifyPool(errors.New("refused")).Kind)
}

func TestSetupError_Unwraps(t *testing.T) {
	cause := &pgconn.PgError{Code: "42P04"}
	provErr := &ProvisionError{Kind: ProvisionNameCollision, Database: "db1", Err: cause}
	setupErr := &SetupError{Stage: StageProvision, Database: "db1", Err: provErr}

	var pe *ProvisionError
	require.ErrorAs(t, setupErr, &pe)
	require.Equal(t, ProvisionNameCollision, pe.Kind)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, setupErr, &pgErr)
	require.Equal(t, "42P04", pgErr.Code)
}

func TestMigrationError_Message(t *testing.T) {
	named := &MigrationError{Index: 2, Name: "create_users", Err: errors.New("syntax error")}
	require.Equal(t, `migration 2 (create_users) failed: syntax error`, named.Error())

	unnamed := &MigrationError{Index: 0, Err: errors.New("syntax error")}
	require.Equal(t, `migration 0 failed: syntax error`, unnamed.Error())
}

func TestTeardownError_Message(t *testing.T) {
	err := &TeardownError{Stage: TeardownForceDisconnect, Database: "db1", Err: errors.New("boom")}
	require.Equal(t, `teardown of database "db1" failed at force disconnect stage: boom`, err.Error())
}
