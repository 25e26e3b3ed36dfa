package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/engine"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/domain/workflow"
	"github.com/garyjia/invoxis/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLogoBytes caps logo uploads
const MaxLogoBytes = 2 << 20

// Draft is one hosted invoice editing session
type Draft struct {
	ID        string
	ProfileID string
	Engine    *engine.Engine
	Surface   *entity.PreviewSurface
	CreatedAt time.Time

	lastAccess atomic.Int64
	exporting  sync.Mutex
	lifecycle  workflow.StateMachine
}

// ExportStatus returns where the draft is in its export lifecycle
func (d *Draft) ExportStatus() workflow.State {
	if d.lifecycle == nil {
		return workflow.StateIdle
	}
	return d.lifecycle.State()
}

func (d *Draft) advanceExport(ctx context.Context, trigger workflow.Trigger) error {
	if d.lifecycle == nil {
		return nil
	}
	return d.lifecycle.Fire(ctx, trigger)
}

// LastAccess returns when the draft was last read or written
func (d *Draft) LastAccess() time.Time {
	return time.Unix(0, d.lastAccess.Load())
}

func (d *Draft) touch(now time.Time) {
	d.lastAccess.Store(now.UnixNano())
}

// TryBeginExport takes the in-flight export guard. The returned func releases it.
func (d *Draft) TryBeginExport() (end func(), ok bool) {
	if !d.exporting.TryLock() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(d.exporting.Unlock) }, true
}

// DraftSummary is the list view of a draft
type DraftSummary struct {
	ID            string    `json:"id"`
	ProfileID     string    `json:"profileId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Items         int       `json:"items"`
	Total         float64   `json:"total"`
	Currency      string    `json:"currency"`
	ExportStatus  string    `json:"exportStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	LastAccess    time.Time `json:"lastAccess"`
}

// DraftService hosts the in-memory drafts
type DraftService interface {
	Create(ctx context.Context, profileID string) (*Draft, error)
	Get(id string) (*Draft, error)
	List() []DraftSummary
	Delete(ctx context.Context, id string) error
	EvictIdle(ctx context.Context, idleFor time.Duration) int
	UseRecentRecipient(ctx context.Context, draftID, email string) error
	SetLogo(ctx context.Context, draftID string, content []byte) error
	RemoveLogo(ctx context.Context, draftID string) error
}

// DraftConfig configures the draft service
type DraftConfig struct {
	Defaults       engine.Defaults
	DefaultProfile string
	EngineLogger   *zap.Logger
	Now            func() time.Time
}

type draftServiceImpl struct {
	cfg        DraftConfig
	profiles   ProfileService
	dispatcher dispatcher.Dispatcher
	storage    port.FileStorage
	logger     Logger

	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewDraftService creates a new DraftService. storage may be nil when exports are not kept.
func NewDraftService(
	cfg DraftConfig,
	profiles ProfileService,
	d dispatcher.Dispatcher,
	storage port.FileStorage,
	logger Logger,
) DraftService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.EngineLogger == nil {
		cfg.EngineLogger = zap.NewNop()
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = "default"
	}
	return &draftServiceImpl{
		cfg:        cfg,
		profiles:   profiles,
		dispatcher: d,
		storage:    storage,
		logger:     logger,
		drafts:     make(map[string]*Draft),
	}
}

// Create starts a draft seeded with the profile's saved issuer
func (s *draftServiceImpl) Create(ctx context.Context, profileID string) (*Draft, error) {
	if strings.TrimSpace(profileID) == "" {
		profileID = s.cfg.DefaultProfile
	}

	opts := []engine.Option{
		engine.WithLogger(s.cfg.EngineLogger),
		engine.WithClock(s.cfg.Now),
	}
	if s.dispatcher != nil {
		opts = append(opts, engine.WithDispatcher(s.dispatcher))
	}

	issuer, found, err := s.profiles.LoadIssuer(ctx, profileID)
	if err != nil {
		s.logger.Error("Failed to load issuer profile", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("create draft: %w", err)
	}
	if found {
		opts = append(opts, engine.WithIssuer(issuer))
	}

	now := s.cfg.Now()
	id := uuid.NewString()
	draft := &Draft{
		ID:        id,
		ProfileID: profileID,
		Engine:    engine.New(id, profileID, s.cfg.Defaults, opts...),
		Surface:   entity.NewPreviewSurface(),
		CreatedAt: now,
		lifecycle: workflow.NewExportMachine(),
	}
	draft.touch(now)

	s.mu.Lock()
	s.drafts[id] = draft
	s.mu.Unlock()

	s.logger.Info("Draft created",
		"draft_id", id,
		"profile_id", profileID,
		"invoice_number", draft.Engine.Settings().InvoiceNumber,
		"issuer_restored", found,
	)
	return draft, nil
}

// Get returns a draft and refreshes its last access time
func (s *draftServiceImpl) Get(id string) (*Draft, error) {
	s.mu.RLock()
	draft, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	draft.touch(s.cfg.Now())
	return draft, nil
}

// List returns every draft, most recently created first
func (s *draftServiceImpl) List() []DraftSummary {
	s.mu.RLock()
	out := make([]DraftSummary, 0, len(s.drafts))
	for _, d := range s.drafts {
		settings := d.Engine.Settings()
		out = append(out, DraftSummary{
			ID:            d.ID,
			ProfileID:     d.ProfileID,
			InvoiceNumber: settings.InvoiceNumber,
			Items:         len(d.Engine.Items()),
			Total:         d.Engine.Totals().Total,
			Currency:      settings.Currency,
			ExportStatus:  d.ExportStatus().String(),
			CreatedAt:     d.CreatedAt,
			LastAccess:    d.LastAccess(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete drops a draft and its exported files
func (s *draftServiceImpl) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.drafts[id]
	delete(s.drafts, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}

	s.removeExports(ctx, id)
	s.logger.Info("Draft deleted", "draft_id", id)
	return nil
}

// EvictIdle removes drafts not accessed within idleFor. Drafts being exported are kept.
func (s *draftServiceImpl) EvictIdle(ctx context.Context, idleFor time.Duration) int {
	cutoff := s.cfg.Now().Add(-idleFor)

	var evicted []string
	s.mu.Lock()
	for id, d := range s.drafts {
		if !d.LastAccess().Before(cutoff) {
			continue
		}
		end, ok := d.TryBeginExport()
		if !ok {
			continue
		}
		delete(s.drafts, id)
		end()
		evicted = append(evicted, id)
	}
	s.mu.Unlock()

	for _, id := range evicted {
		s.removeExports(ctx, id)
	}
	if len(evicted) > 0 {
		s.logger.Info("Evicted idle drafts", "count", len(evicted), "idle_for", idleFor.String())
	}
	return len(evicted)
}

func (s *draftServiceImpl) removeExports(ctx context.Context, id string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.DeleteDir(ctx, id); err != nil {
		s.logger.Error("Failed to remove draft exports", "draft_id", id, "error", err)
	}
}

// UseRecentRecipient copies a remembered recipient into the draft
func (s *draftServiceImpl) UseRecentRecipient(ctx context.Context, draftID, email string) error {
	draft, err := s.Get(draftID)
	if err != nil {
		return err
	}

	recents, err := s.profiles.RecentRecipients(ctx, draft.ProfileID)
	if err != nil {
		return err
	}
	for _, r := range recents {
		if entity.SameEmail(r.Email, email) {
			return draft.Engine.SetRecipient(entity.PatchFrom(r))
		}
	}
	return fmt.Errorf("%w: %s", ErrRecipientNotFound, email)
}

// SetLogo validates an uploaded image and stores it on the issuer as a data URL
func (s *draftServiceImpl) SetLogo(ctx context.Context, draftID string, content []byte) error {
	draft, err := s.Get(draftID)
	if err != nil {
		return err
	}

	if len(content) > MaxLogoBytes {
		return ErrLogoTooLarge
	}
	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fmt.Errorf("%w: got %s", ErrInvalidLogo, mtype.String())
	}

	logo := utils.EncodeDataURL(mtype.String(), content)
	if err := draft.Engine.SetIssuer(entity.PartyPatch{Logo: &logo}); err != nil {
		return err
	}

	s.logger.Info("Logo uploaded", "draft_id", draftID, "mime", mtype.String(), "size", len(content))
	return nil
}

// RemoveLogo clears the issuer logo
func (s *draftServiceImpl) RemoveLogo(ctx context.Context, draftID string) error {
	draft, err := s.Get(draftID)
	if err != nil {
		return err
	}
	empty := ""
	return draft.Engine.SetIssuer(entity.PartyPatch{Logo: &empty})
}
