package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/engine"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type draftFixture struct {
	drafts   DraftService
	profiles ProfileService
	storage  port.FileStorage
	clock    *manualClock
	logger   *mockLogger
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()
	logger := &mockLogger{}
	clock := &manualClock{now: time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)}
	d := dispatcher.NewDispatcher()
	profiles := NewProfileService(ProfileConfig{}, newMemStore(), nil, logger)
	profiles.Subscribe(d)
	files := storage.NewLocalFileStorage(t.TempDir(), zap.NewNop())

	drafts := NewDraftService(DraftConfig{
		Defaults:       engine.DefaultDefaults(),
		DefaultProfile: "default",
		Now:            clock.Now,
	}, profiles, d, files, logger)

	return &draftFixture{drafts: drafts, profiles: profiles, storage: files, clock: clock, logger: logger}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestDraftService_CreateSeedsSavedIssuer(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	require.NoError(t, f.profiles.SaveIssuer(ctx, "acme", entity.Party{
		Name: "Acme GmbH", Email: "rechnung@acme.de", Country: "Germany", PinCode: "10115",
	}))

	draft, err := f.drafts.Create(ctx, "acme")
	require.NoError(t, err)

	issuer := draft.Engine.Issuer()
	assert.Equal(t, "Acme GmbH", issuer.Name)
	assert.Empty(t, issuer.PinCode)
	assert.Equal(t, "acme", draft.ProfileID)
	assert.False(t, draft.Surface.Mounted())
	assert.Equal(t, entity.CountryIndia, draft.Engine.Recipient().Country)
}

func TestDraftService_CreateUsesDefaultProfile(t *testing.T) {
	f := newDraftFixture(t)

	draft, err := f.drafts.Create(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "default", draft.ProfileID)
	assert.Equal(t, entity.Party{Country: entity.CountryIndia}, draft.Engine.Issuer())
}

func TestDraftService_GetAndList(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)

	first, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)

	got, err := f.drafts.Get(first.ID)
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = f.drafts.Get("missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	list := f.drafts.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "INR", list[0].Currency)
}

func TestDraftService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	draft, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.storage.Save(ctx, draft.ID+"/Invoice_x.pdf", []byte("%PDF")))

	require.NoError(t, f.drafts.Delete(ctx, draft.ID))
	assert.False(t, f.storage.Exists(ctx, draft.ID+"/Invoice_x.pdf"))
	assert.ErrorIs(t, f.drafts.Delete(ctx, draft.ID), ErrDraftNotFound)
	_, err = f.drafts.Get(draft.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)

	stale, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)
	busy, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	fresh, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)

	end, ok := busy.TryBeginExport()
	require.True(t, ok)
	defer end()

	assert.Equal(t, 1, f.drafts.EvictIdle(ctx, 10*time.Minute))

	_, err = f.drafts.Get(stale.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = f.drafts.Get(busy.ID)
	assert.NoError(t, err, "drafts being exported survive")
	_, err = f.drafts.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestDraftService_GetRefreshesLastAccess(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	draft, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)

	f.clock.Advance(9 * time.Minute)
	_, err = f.drafts.Get(draft.ID)
	require.NoError(t, err)
	f.clock.Advance(9 * time.Minute)

	assert.Zero(t, f.drafts.EvictIdle(ctx, 10*time.Minute))
}

func TestDraftService_UseRecentRecipient(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	_, err := f.profiles.RememberRecipient(ctx, "default", entity.Party{
		Name: "Globex", Email: "ap@globex.com", Phone: "9876543210", Country: "Canada",
	})
	require.NoError(t, err)

	draft, err := f.drafts.Create(ctx, "default")
	require.NoError(t, err)

	require.NoError(t, f.drafts.UseRecentRecipient(ctx, draft.ID, "AP@globex.com"))
	assert.Equal(t, "Globex", draft.Engine.Recipient().Name)
	assert.Equal(t, "Canada", draft.Engine.Recipient().Country)

	assert.ErrorIs(t, f.drafts.UseRecentRecipient(ctx, draft.ID, "nobody@x.com"), ErrRecipientNotFound)
}

func TestDraftService_Logo(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	draft, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, f.drafts.SetLogo(ctx, draft.ID, pngBytes(t)))
	assert.True(t, strings.HasPrefix(draft.Engine.Issuer().Logo, "data:image/png;base64,"))

	err = f.drafts.SetLogo(ctx, draft.ID, []byte("just some text"))
	assert.ErrorIs(t, err, ErrInvalidLogo)

	err = f.drafts.SetLogo(ctx, draft.ID, make([]byte, MaxLogoBytes+1))
	assert.ErrorIs(t, err, ErrLogoTooLarge)

	require.NoError(t, f.drafts.RemoveLogo(ctx, draft.ID))
	assert.Empty(t, draft.Engine.Issuer().Logo)

	assert.ErrorIs(t, f.drafts.SetLogo(ctx, "missing", pngBytes(t)), ErrDraftNotFound)
}

func TestDraft_TryBeginExport(t *testing.T) {
	d := &Draft{}

	end, ok := d.TryBeginExport()
	require.True(t, ok)
	_, again := d.TryBeginExport()
	assert.False(t, again)

	end()
	end()
	end2, ok := d.TryBeginExport()
	assert.True(t, ok)
	end2()
}
