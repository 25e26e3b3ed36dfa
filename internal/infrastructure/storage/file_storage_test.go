package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s := NewLocalFileStorage(base, zap.NewNop())

	path := filepath.Join("draft-1", "Invoice_INV-123456-007_20261014.pdf")
	require.NoError(t, s.Save(ctx, path, []byte("%PDF-1.3")))
	assert.True(t, s.Exists(ctx, path))
	assert.FileExists(t, filepath.Join(base, path))

	content, err := s.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), content)

	require.NoError(t, s.Save(ctx, path, []byte("%PDF-1.4")))
	content, err = s.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), content)

	entries, err := os.ReadDir(filepath.Join(base, "draft-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Delete(ctx, path))
	require.NoError(t, s.Delete(ctx, path))
	assert.False(t, s.Exists(ctx, path))
}

func TestLocalFileStorage_ReadMissing(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	_, err := s.Read(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFileStorage_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	assert.Error(t, s.Save(ctx, "../outside.pdf", []byte("x")))
	_, err := s.Read(ctx, "../../etc/passwd")
	assert.Error(t, err)
	assert.False(t, s.Exists(ctx, "../outside.pdf"))
	assert.Error(t, s.DeleteDir(ctx, "."))
}

func TestLocalFileStorage_DeleteDir(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	require.NoError(t, s.Save(ctx, "draft-1/a.pdf", []byte("a")))
	require.NoError(t, s.Save(ctx, "draft-1/a.png", []byte("b")))
	require.NoError(t, s.DeleteDir(ctx, "draft-1"))

	assert.False(t, s.Exists(ctx, "draft-1/a.pdf"))
	assert.NoDirExists(t, s.GetFullPath("draft-1"))
}

func TestLocalFileStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	assert.ErrorIs(t, s.Save(ctx, "a.pdf", []byte("x")), context.Canceled)
}
