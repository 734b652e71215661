package ephemeraldb

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrationsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"002_posts.sql": {Data: []byte("CREATE TABLE posts (id SERIAL PRIMARY KEY)")},
		"001_users.sql": {Data: []byte("CREATE TABLE users (id SERIAL PRIMARY KEY)")},
		"003_index.sql": {Data: []byte("CREATE INDEX posts_id_idx ON posts (id)")},
		"README.md":     {Data: []byte("not a migration")},
	}

	migrations, err := MigrationsFromFS(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	// Ordered by file name, extension stripped.
	require.Equal(t, "001_users", migrations[0].Name)
	require.Equal(t, "002_posts", migrations[1].Name)
	require.Equal(t, "003_index", migrations[2].Name)
	require.Equal(t, "CREATE TABLE users (id SERIAL PRIMARY KEY)", migrations[0].SQL)
}

func TestMigrationsFromFS_IgnoresDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"001_users.sql":      {Data: []byte("CREATE TABLE users (id SERIAL PRIMARY KEY)")},
		"down/001_users.sql": {Data: []byte("DROP TABLE users")},
	}

	migrations, err := MigrationsFromFS(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	require.Equal(t, "001_users", migrations[0].Name)
}

func TestMigrationsFromFS_Empty(t *testing.T) {
	migrations, err := MigrationsFromFS(fstest.MapFS{})
	require.NoError(t, err)
	require.Empty(t, migrations)
}
