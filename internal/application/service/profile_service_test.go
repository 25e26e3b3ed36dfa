package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/engine"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfileService() (ProfileService, *memStore, *mockLogger) {
	store := newMemStore()
	logger := &mockLogger{}
	return NewProfileService(ProfileConfig{MaxRecentRecipients: 5}, store, nil, logger), store, logger
}

func TestProfileService_Issuer(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProfileService()

	_, found, err := svc.LoadIssuer(ctx, "default")
	require.NoError(t, err)
	assert.False(t, found)

	issuer := entity.Party{Name: "Acme", Email: "billing@acme.in", Country: entity.CountryIndia}
	require.NoError(t, svc.SaveIssuer(ctx, "default", issuer))

	got, found, err := svc.LoadIssuer(ctx, "default")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, issuer, got)
}

func TestProfileService_RememberRecipient(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProfileService()

	for i := 1; i <= 6; i++ {
		_, err := svc.RememberRecipient(ctx, "default", entity.Party{
			Name:  fmt.Sprintf("Client %d", i),
			Email: fmt.Sprintf("client%d@example.com", i),
		})
		require.NoError(t, err)
	}

	list, err := svc.RecentRecipients(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "client6@example.com", list[0].Email)
	assert.Equal(t, "client2@example.com", list[4].Email)

	list, err = svc.RememberRecipient(ctx, "default", entity.Party{Name: "Client 4 Ltd", Email: "client4@example.com"})
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Client 4 Ltd", list[2].Name, "existing email is replaced in place")
}

func TestProfileService_RecentRecipientsEmpty(t *testing.T) {
	svc, _, _ := newTestProfileService()

	list, err := svc.RecentRecipients(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestProfileService_Theme(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestProfileService()

	dark, err := svc.DarkTheme(ctx, "default")
	require.NoError(t, err)
	assert.True(t, dark, "dark by default")

	dark, err = svc.ToggleTheme(ctx, "default")
	require.NoError(t, err)
	assert.False(t, dark)

	var stored string
	found, err := store.Get(ctx, "default", port.KeyDisplayTheme, &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ThemeLight, stored)

	dark, err = svc.ToggleTheme(ctx, "default")
	require.NoError(t, err)
	assert.True(t, dark)

	require.NoError(t, svc.SetDarkTheme(ctx, "default", false))
	dark, err = svc.DarkTheme(ctx, "default")
	require.NoError(t, err)
	assert.False(t, dark)
}

func TestProfileService_DisplayName(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProfileService()

	name, err := svc.DisplayName(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, svc.SetDisplayName(ctx, "default", "Priya"))
	name, err = svc.DisplayName(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "Priya", name)
}

func TestProfileService_CorruptEntryIsIgnored(t *testing.T) {
	ctx := context.Background()
	svc, store, logger := newTestProfileService()
	store.putRaw("default", port.KeyRecentRecipients, "{broken")

	list, err := svc.RecentRecipients(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 1, logger.errorCount())

	list, err = svc.RememberRecipient(ctx, "default", entity.Party{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProfileService_AutoSaveFromPartyEvents(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProfileService()
	d := dispatcher.NewDispatcher()
	svc.Subscribe(d)

	e := engine.New("draft-1", "default", engine.DefaultDefaults(), engine.WithDispatcher(d))

	require.NoError(t, e.SetIssuer(entity.PartyPatch{Name: strPtr("Acme")}))
	_, found, err := svc.LoadIssuer(ctx, "default")
	require.NoError(t, err)
	assert.False(t, found, "issuer without email is not saved")

	require.NoError(t, e.SetIssuer(entity.PartyPatch{Email: strPtr("billing@acme.in")}))
	issuer, found, err := svc.LoadIssuer(ctx, "default")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Acme", issuer.Name)

	require.NoError(t, e.SetRecipient(entity.PartyPatch{Name: strPtr("Globex"), Email: strPtr("ap@globex.com")}))
	require.NoError(t, e.SetRecipient(entity.PartyPatch{Phone: strPtr("9999999999")}))
	list, err := svc.RecentRecipients(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "9999999999", list[0].Phone)
}

func TestProfileService_FailedAutoSaveStillReachesStreams(t *testing.T) {
	svc, store, logger := newTestProfileService()
	store.failPut = errors.New("database is locked")

	d := dispatcher.NewDispatcher()
	svc.Subscribe(d)

	var streamed []event.Type
	d.SubscribeAll("stream", dispatcher.ForDraft("draft-1"), func(ctx context.Context, evt *event.Event) error {
		streamed = append(streamed, evt.Type)
		return nil
	})

	e := engine.New("draft-1", "default", engine.DefaultDefaults(), engine.WithDispatcher(d))
	require.NoError(t, e.SetIssuer(entity.PartyPatch{Name: strPtr("Acme"), Email: strPtr("billing@acme.in")}))
	require.NoError(t, e.SetRecipient(entity.PartyPatch{Name: strPtr("Globex"), Email: strPtr("ap@globex.com")}))

	assert.Equal(t, []event.Type{event.TypeIssuerUpdated, event.TypeRecipientUpdated}, streamed)
	assert.Equal(t, 2, logger.errorCount())
	assert.Equal(t, "Acme", e.Issuer().Name, "the mutation stands when persistence fails")
}

func TestProfileService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProfileService()

	require.NoError(t, svc.SaveIssuer(ctx, "alice", entity.Party{Name: "Acme", Email: "billing@acme.in"}))
	require.NoError(t, svc.SetDarkTheme(ctx, "alice", false))
	require.NoError(t, svc.SetDisplayName(ctx, "alice", "Alice"))
	require.NoError(t, svc.SetDisplayName(ctx, "bob", "Bob"))

	removed, err := svc.Reset(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, found, err := svc.LoadIssuer(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)
	dark, err := svc.DarkTheme(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, dark, "theme falls back to dark")

	name, err := svc.DisplayName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", name, "other profiles are untouched")

	removed, err = svc.Reset(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
