package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoxis/migrations"
	"github.com/garyjia/invoxis/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) (port.ProfileStore, *database.DB) {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "profiles.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrationsFS(context.Background(), migrations.FS))
	return NewProfileRepository(db.DB, logger), db
}

func TestProfileRepository_GetMissing(t *testing.T) {
	repo, _ := setupRepo(t)

	var p entity.Party
	found, err := repo.Get(context.Background(), "default", port.KeyIssuerProfile, &p)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileRepository_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	issuer := entity.Party{Name: "Acme", Email: "billing@acme.in", Country: entity.CountryIndia, PinCode: "560001"}
	require.NoError(t, repo.Put(ctx, "default", port.KeyIssuerProfile, issuer))

	var got entity.Party
	found, err := repo.Get(ctx, "default", port.KeyIssuerProfile, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, issuer, got)

	issuer.Name = "Acme Renamed"
	require.NoError(t, repo.Put(ctx, "default", port.KeyIssuerProfile, issuer))
	_, err = repo.Get(ctx, "default", port.KeyIssuerProfile, &got)
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", got.Name)
}

func TestProfileRepository_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	require.NoError(t, repo.Put(ctx, "alice", port.KeyDisplayName, "Alice"))

	var name string
	found, err := repo.Get(ctx, "bob", port.KeyDisplayName, &name)
	require.NoError(t, err)
	assert.False(t, found)

	keys, err := repo.Keys(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{port.KeyDisplayName}, keys)
}

func TestProfileRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	require.NoError(t, repo.Put(ctx, "default", port.KeyDisplayTheme, "light"))
	require.NoError(t, repo.Delete(ctx, "default", port.KeyDisplayTheme))
	require.NoError(t, repo.Delete(ctx, "default", port.KeyDisplayTheme))

	var theme string
	found, err := repo.Get(ctx, "default", port.KeyDisplayTheme, &theme)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileRepository_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	repo, db := setupRepo(t)

	_, err := db.Exec(`INSERT INTO profile_entries (profile_id, key, value) VALUES ('default', ?, '{not json')`, port.KeyRecentRecipients)
	require.NoError(t, err)

	var list []entity.Party
	found, err := repo.Get(ctx, "default", port.KeyRecentRecipients, &list)
	assert.False(t, found)
	assert.ErrorIs(t, err, port.ErrCorruptEntry)
}

func TestProfileRepository_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo, db := setupRepo(t)
	tm := sqlite.NewDB(db.DB, zap.NewNop())

	boom := errors.New("boom")
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Put(txCtx, "default", port.KeyDisplayName, "Pending"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var name string
	found, err := repo.Get(ctx, "default", port.KeyDisplayName, &name)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tm.WithTransaction(ctx, func(txCtx context.Context) error {
		return repo.Put(txCtx, "default", port.KeyDisplayName, "Committed")
	}))
	found, err = repo.Get(ctx, "default", port.KeyDisplayName, &name)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Committed", name)
}
