package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_second.sql", "001_initial_schema.sql", "README.md", "abc.sql", "010_tenth.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)

	var versions []int
	for _, m := range migrations {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []int{1, 2, 10}, versions)
}

func TestListMigrations_ShipsInitialSchema(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001_initial_schema.sql", migrations[0].Name)
}

func TestListMigrations_MissingDir(t *testing.T) {
	_, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
