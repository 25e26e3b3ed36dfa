package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/garyjia/invoxis/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "profiles.db"), MaxOpenConns: 4, MaxIdleConns: 2}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":   {Data: []byte("CREATE INDEX i ON t(a);")},
		"001_create_t.sql":    {Data: []byte("CREATE TABLE t (a TEXT);")},
		"README.md":           {Data: []byte("ignored")},
		"nested/003_skip.sql": {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "create_t", got[0].Name)
	assert.Equal(t, 2, got[1].Version)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("")},
		"001_b.sql": {Data: []byte("")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.RunMigrationsFS(ctx, migrations.FS))
	require.NoError(t, m.RunMigrationsFS(ctx, migrations.FS))

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.True(t, applied[1])

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM profile_entries").Scan(&n))
	assert.Zero(t, n)
}

func TestRunMigrations_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_create_t.sql"), []byte("CREATE TABLE t (a TEXT);"), 0644))

	db := openTestDB(t)
	require.NoError(t, NewMigrator(db, zap.NewNop()).RunMigrations(context.Background(), dir))

	_, err := db.Exec("INSERT INTO t (a) VALUES ('x')")
	assert.NoError(t, err)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE t (a TEXT)")
	require.NoError(t, err)

	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (a) VALUES ('x')"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
	assert.Zero(t, n)
}

func TestNew_InMemory(t *testing.T) {
	db, err := New(Config{Path: MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewMigrator(db, zap.NewNop()).RunMigrationsFS(context.Background(), migrations.FS))
}
