package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/domain/event"
)

// Theme values stored under display_theme
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ProfileService reads and writes the persistent per-profile state
type ProfileService interface {
	LoadIssuer(ctx context.Context, profileID string) (entity.Party, bool, error)
	SaveIssuer(ctx context.Context, profileID string, issuer entity.Party) error
	RecentRecipients(ctx context.Context, profileID string) ([]entity.Party, error)
	RememberRecipient(ctx context.Context, profileID string, recipient entity.Party) ([]entity.Party, error)
	DarkTheme(ctx context.Context, profileID string) (bool, error)
	SetDarkTheme(ctx context.Context, profileID string, dark bool) error
	ToggleTheme(ctx context.Context, profileID string) (bool, error)
	DisplayName(ctx context.Context, profileID string) (string, error)
	SetDisplayName(ctx context.Context, profileID, name string) error
	Reset(ctx context.Context, profileID string) (int, error)

	// Subscribe registers the automatic saves driven by party events
	Subscribe(d dispatcher.Dispatcher)
}

// ProfileConfig configures the profile service
type ProfileConfig struct {
	MaxRecentRecipients int
}

type profileServiceImpl struct {
	cfg       ProfileConfig
	store     port.ProfileStore
	txManager port.TransactionManager
	logger    Logger
}

// NewProfileService creates a new ProfileService. txManager may be nil.
func NewProfileService(cfg ProfileConfig, store port.ProfileStore, txManager port.TransactionManager, logger Logger) ProfileService {
	if cfg.MaxRecentRecipients <= 0 {
		cfg.MaxRecentRecipients = 5
	}
	return &profileServiceImpl{
		cfg:       cfg,
		store:     store,
		txManager: txManager,
		logger:    logger,
	}
}

// get treats a corrupt entry like a missing one so a bad write never locks a profile out
func (s *profileServiceImpl) get(ctx context.Context, profileID, key string, dest interface{}) (bool, error) {
	found, err := s.store.Get(ctx, profileID, key, dest)
	if errors.Is(err, port.ErrCorruptEntry) {
		s.logger.Error("Ignoring corrupt profile entry", "profile_id", profileID, "key", key, "error", err)
		return false, nil
	}
	return found, err
}

// LoadIssuer returns the saved issuer profile
func (s *profileServiceImpl) LoadIssuer(ctx context.Context, profileID string) (entity.Party, bool, error) {
	var issuer entity.Party
	found, err := s.get(ctx, profileID, port.KeyIssuerProfile, &issuer)
	if err != nil {
		return entity.Party{}, false, fmt.Errorf("load issuer: %w", err)
	}
	return issuer, found, nil
}

// SaveIssuer persists the issuer profile
func (s *profileServiceImpl) SaveIssuer(ctx context.Context, profileID string, issuer entity.Party) error {
	if err := s.store.Put(ctx, profileID, port.KeyIssuerProfile, issuer); err != nil {
		return fmt.Errorf("save issuer: %w", err)
	}
	return nil
}

// RecentRecipients returns the most-recent-first recipient list
func (s *profileServiceImpl) RecentRecipients(ctx context.Context, profileID string) ([]entity.Party, error) {
	var list []entity.Party
	if _, err := s.get(ctx, profileID, port.KeyRecentRecipients, &list); err != nil {
		return nil, fmt.Errorf("load recent recipients: %w", err)
	}
	if list == nil {
		list = []entity.Party{}
	}
	return list, nil
}

// RememberRecipient upserts recipient by email, keeping at most MaxRecentRecipients entries
func (s *profileServiceImpl) RememberRecipient(ctx context.Context, profileID string, recipient entity.Party) ([]entity.Party, error) {
	var updated []entity.Party
	err := s.inTx(ctx, func(ctx context.Context) error {
		list, err := s.RecentRecipients(ctx, profileID)
		if err != nil {
			return err
		}
		updated = entity.UpsertRecent(list, recipient, s.cfg.MaxRecentRecipients)
		return s.store.Put(ctx, profileID, port.KeyRecentRecipients, updated)
	})
	if err != nil {
		return nil, fmt.Errorf("remember recipient: %w", err)
	}
	return updated, nil
}

// DarkTheme reports the theme flag, dark when never set
func (s *profileServiceImpl) DarkTheme(ctx context.Context, profileID string) (bool, error) {
	theme := ThemeDark
	if _, err := s.get(ctx, profileID, port.KeyDisplayTheme, &theme); err != nil {
		return true, fmt.Errorf("load theme: %w", err)
	}
	return theme != ThemeLight, nil
}

// SetDarkTheme persists the theme flag
func (s *profileServiceImpl) SetDarkTheme(ctx context.Context, profileID string, dark bool) error {
	theme := ThemeLight
	if dark {
		theme = ThemeDark
	}
	if err := s.store.Put(ctx, profileID, port.KeyDisplayTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips and persists the theme flag, returning the new value
func (s *profileServiceImpl) ToggleTheme(ctx context.Context, profileID string) (bool, error) {
	var dark bool
	err := s.inTx(ctx, func(ctx context.Context) error {
		current, err := s.DarkTheme(ctx, profileID)
		if err != nil {
			return err
		}
		dark = !current
		return s.SetDarkTheme(ctx, profileID, dark)
	})
	return dark, err
}

// DisplayName returns the greeting name, empty when never set
func (s *profileServiceImpl) DisplayName(ctx context.Context, profileID string) (string, error) {
	var name string
	if _, err := s.get(ctx, profileID, port.KeyDisplayName, &name); err != nil {
		return "", fmt.Errorf("load display name: %w", err)
	}
	return name, nil
}

// SetDisplayName persists the greeting name
func (s *profileServiceImpl) SetDisplayName(ctx context.Context, profileID, name string) error {
	if err := s.store.Put(ctx, profileID, port.KeyDisplayName, name); err != nil {
		return fmt.Errorf("save display name: %w", err)
	}
	return nil
}

// Reset forgets everything stored for a profile and reports how many entries were removed
func (s *profileServiceImpl) Reset(ctx context.Context, profileID string) (int, error) {
	var removed int
	err := s.inTx(ctx, func(ctx context.Context) error {
		keys, err := s.store.Keys(ctx, profileID)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := s.store.Delete(ctx, profileID, key); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset profile: %w", err)
	}

	s.logger.Info("Profile reset", "profile_id", profileID, "entries", removed)
	return removed, nil
}

// Subscribe registers the party event handlers
func (s *profileServiceImpl) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeIssuerUpdated, "profile.save_issuer", s.onIssuerUpdated)
	d.SubscribeNamed(event.TypeRecipientUpdated, "profile.remember_recipient", s.onRecipientUpdated)
}

func (s *profileServiceImpl) onIssuerUpdated(ctx context.Context, evt *event.Event) error {
	issuer, ok := event.Get[entity.Party](evt, event.PayloadParty)
	if !ok || !issuer.Rememberable() {
		return nil
	}
	if err := s.SaveIssuer(ctx, evt.ProfileID, issuer); err != nil {
		s.logger.Error("Failed to save issuer profile", "profile_id", evt.ProfileID, "draft_id", evt.DraftID, "error", err)
		return err
	}
	return nil
}

func (s *profileServiceImpl) onRecipientUpdated(ctx context.Context, evt *event.Event) error {
	recipient, ok := event.Get[entity.Party](evt, event.PayloadParty)
	if !ok || !recipient.Rememberable() {
		return nil
	}
	if _, err := s.RememberRecipient(ctx, evt.ProfileID, recipient); err != nil {
		s.logger.Error("Failed to remember recipient", "profile_id", evt.ProfileID, "draft_id", evt.DraftID, "error", err)
		return err
	}
	return nil
}

func (s *profileServiceImpl) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.WithTransaction(ctx, fn)
}
