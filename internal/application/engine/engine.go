// Package engine owns the mutable state of one invoice draft and exposes its
// derived totals and validation.
//
// The engine is the single owner of the issuer, recipient, line items and
// settings. Readers get copies; every mutation recomputes the cached Totals
// under the same lock, so a Totals snapshot is never computed from a partially
// applied change. Subscribers are notified through the dispatcher after the
// mutation has settled.
//
// Mutations of one engine are serialized together with their notifications:
// a mutation does not start until the events of the previous one have been
// delivered, so subscribers observe events in the order the changes were
// applied. Handlers may read the engine but must not mutate it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/domain/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownField is returned when a field-level update names a field that does not exist
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidNumber is returned when a numeric field receives a value that cannot be coerced
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidValue is returned when a non-numeric field receives an unusable value
	ErrInvalidValue = errors.New("invalid value")
)

// Defaults configures a new draft
type Defaults struct {
	Country  string
	Currency string
	TaxRate  float64
	DueDays  int
}

// DefaultDefaults returns the stock draft defaults
func DefaultDefaults() Defaults {
	return Defaults{
		Country:  entity.CountryIndia,
		Currency: entity.DefaultCurrency,
		TaxRate:  entity.DefaultTaxRate,
		DueDays:  entity.DefaultDueDays,
	}
}

// Engine is the invoice engine of a single draft
type Engine struct {
	draftID   string
	profileID string

	// writeMu is held across a mutation and the dispatch of its events
	writeMu sync.Mutex

	mu        sync.RWMutex
	issuer    entity.Party
	recipient entity.Party
	items     []entity.LineItem
	settings  entity.Settings
	totals    entity.Totals
	errors    entity.ValidationErrors

	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
	randIntN   func(n int) int
}

// Option configures an Engine
type Option func(*Engine)

// WithDispatcher publishes change notifications through d
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for dates and invoice numbers
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides the line item id generator
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// WithRandom overrides the random source of invoice number suffixes
func WithRandom(randIntN func(n int) int) Option {
	return func(e *Engine) {
		e.randIntN = randIntN
	}
}

// WithIssuer seeds the issuer, typically from a saved profile
func WithIssuer(p entity.Party) Option {
	return func(e *Engine) {
		e.issuer = p
		if !e.issuer.RequiresPinCode() {
			e.issuer.PinCode = ""
		}
	}
}

// New creates an engine for a draft
func New(draftID, profileID string, defaults Defaults, opts ...Option) *Engine {
	e := &Engine{
		draftID:   draftID,
		profileID: profileID,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     newTimeOrderedID,
		randIntN:  rand.IntN,
	}
	e.issuer = entity.NewParty(defaults.Country)
	e.recipient = entity.NewParty(defaults.Country)

	for _, opt := range opts {
		opt(e)
	}

	today := entity.NewDate(e.now())
	e.settings = entity.Settings{
		TaxRate:       defaults.TaxRate,
		DiscountType:  entity.DiscountPercentage,
		Discount:      0,
		Currency:      defaults.Currency,
		InvoiceNumber: GenerateInvoiceNumber(e.now(), e.randIntN),
		InvoiceDate:   today,
		DueDate:       today.AddDays(defaults.DueDays),
	}
	e.items = []entity.LineItem{}
	e.totals = entity.ComputeTotals(e.items, e.settings)

	return e
}

// GenerateInvoiceNumber formats INV-<last 6 digits of the ms timestamp>-<3-digit random>
func GenerateInvoiceNumber(now time.Time, randIntN func(n int) int) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("INV-%s-%03d", ts, randIntN(1000))
}

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// DraftID returns the draft the engine belongs to
func (e *Engine) DraftID() string {
	return e.draftID
}

// ProfileID returns the profile the draft belongs to
func (e *Engine) ProfileID() string {
	return e.profileID
}

// Issuer returns a copy of the issuer
func (e *Engine) Issuer() entity.Party {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.issuer
}

// Recipient returns a copy of the recipient
func (e *Engine) Recipient() entity.Party {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recipient
}

// Items returns a copy of the line items in display order
func (e *Engine) Items() []entity.LineItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneItems(e.items)
}

// Settings returns a copy of the settings
func (e *Engine) Settings() entity.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Totals returns the cached totals snapshot, recomputed on every mutation
func (e *Engine) Totals() entity.Totals {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totals
}

// Errors returns the current validation view
func (e *Engine) Errors() entity.ValidationErrors {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errors.Clone()
}

// State is a consistent copy of everything the engine owns
type State struct {
	DraftID   string                  `json:"draftId"`
	Issuer    entity.Party            `json:"issuer"`
	Recipient entity.Party            `json:"recipient"`
	Items     []entity.LineItem       `json:"items"`
	Settings  entity.Settings         `json:"settings"`
	Totals    entity.Totals           `json:"totals"`
	Errors    entity.ValidationErrors `json:"errors"`
}

// Snapshot returns a consistent copy of the whole draft
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return State{
		DraftID:   e.draftID,
		Issuer:    e.issuer,
		Recipient: e.recipient,
		Items:     cloneItems(e.items),
		Settings:  e.settings,
		Totals:    e.totals,
		Errors:    e.errors.Clone(),
	}
}

// View builds the renderer input from a consistent snapshot
func (e *Engine) View(style entity.SurfaceStyle) entity.InvoiceView {
	s := e.Snapshot()
	return entity.InvoiceView{
		DraftID:   s.DraftID,
		Issuer:    s.Issuer,
		Recipient: s.Recipient,
		Items:     s.Items,
		Settings:  s.Settings,
		Totals:    s.Totals,
		Style:     style,
	}
}

// SetIssuer merges patch into the issuer. No validation is performed.
func (e *Engine) SetIssuer(patch entity.PartyPatch) error {
	return e.setParty(entity.RoleIssuer, patch)
}

// SetRecipient merges patch into the recipient. No validation is performed.
func (e *Engine) SetRecipient(patch entity.PartyPatch) error {
	return e.setParty(entity.RoleRecipient, patch)
}

func (e *Engine) setParty(role entity.PartyRole, patch entity.PartyPatch) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	target := &e.recipient
	eventType := event.TypeRecipientUpdated
	if role == entity.RoleIssuer {
		target = &e.issuer
		eventType = event.TypeIssuerUpdated
	}

	updated := *target
	if err := patch.Apply(&updated); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to update %s: %w", role, err)
	}
	*target = updated
	number := e.settings.InvoiceNumber
	e.mu.Unlock()

	e.publish(event.NewEvent(eventType, e.draftID, e.profileID, number, map[string]interface{}{
		event.PayloadParty: updated,
	}))
	return nil
}

// AddLineItem appends a new item with default values and returns it
func (e *Engine) AddLineItem() entity.LineItem {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	item := entity.NewLineItem(e.newID())
	e.items = append(e.items, item)
	e.recomputeLocked()
	evts := e.itemEventsLocked("added", item.ID)
	e.mu.Unlock()

	e.publish(evts...)
	return item
}

// UpdateLineItem overwrites one field of the item with the given id.
// An unknown id is a silent no-op. Numeric fields coerce empty input to 0.
func (e *Engine) UpdateLineItem(id, field string, value interface{}) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}

	item := e.items[idx]
	if err := applyItemField(&item, field, value); err != nil {
		e.mu.Unlock()
		return err
	}
	e.items[idx] = item
	e.recomputeLocked()
	evts := e.itemEventsLocked("updated", id)
	e.mu.Unlock()

	e.publish(evts...)
	return nil
}

// RemoveLineItem removes the item with the given id. An unknown id is a silent no-op.
func (e *Engine) RemoveLineItem(id string) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return
	}

	e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	e.recomputeLocked()
	evts := e.itemEventsLocked("removed", id)
	e.mu.Unlock()

	e.publish(evts...)
}

// UpdateSettings overwrites one settings field. Numeric fields coerce empty input to 0.
func (e *Engine) UpdateSettings(field string, value interface{}) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	settings := e.settings
	if err := applySettingsField(&settings, field, value); err != nil {
		e.mu.Unlock()
		return err
	}
	e.settings = settings
	e.recomputeLocked()

	totals := e.totals
	evts := []*event.Event{
		event.NewEvent(event.TypeSettingsChanged, e.draftID, e.profileID, settings.InvoiceNumber, map[string]interface{}{
			event.PayloadSettings: settings,
		}),
		event.NewEvent(event.TypeTotalsRecomputed, e.draftID, e.profileID, settings.InvoiceNumber, map[string]interface{}{
			event.PayloadTotals: totals,
		}),
	}
	e.mu.Unlock()

	e.publish(evts...)
	return nil
}

// CalculateSubtotal recomputes the subtotal from the current items
func (e *Engine) CalculateSubtotal() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return entity.Subtotal(e.items)
}

// CalculateTax recomputes the tax amount from the current items and settings
func (e *Engine) CalculateTax() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return entity.TaxAmount(e.items, e.settings)
}

// CalculateDiscount recomputes the invoice-level discount amount
func (e *Engine) CalculateDiscount() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return entity.DiscountAmount(e.items, e.settings)
}

// CalculateTotal recomputes subtotal + tax - discount
func (e *Engine) CalculateTotal() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return entity.Total(e.items, e.settings)
}

// ValidateIssuer validates the issuer and records its messages
func (e *Engine) ValidateIssuer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors.Issuer = entity.ValidateParty(entity.RoleIssuer, e.issuer)
	return e.errors.Issuer.Empty()
}

// ValidateRecipient validates the recipient and records its messages
func (e *Engine) ValidateRecipient() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors.Recipient = entity.ValidateParty(entity.RoleRecipient, e.recipient)
	return e.errors.Recipient.Empty()
}

// ValidateLineItems validates the item collection and records its messages
func (e *Engine) ValidateLineItems() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	itemErrs, ok := entity.ValidateItems(e.items)
	e.errors.Items = itemErrs
	return ok
}

// ValidateAll runs every validation, recording all messages even when an
// earlier part already failed
func (e *Engine) ValidateAll() bool {
	issuerOK := e.ValidateIssuer()
	recipientOK := e.ValidateRecipient()
	itemsOK := e.ValidateLineItems()
	return issuerOK && recipientOK && itemsOK
}

func (e *Engine) indexLocked(id string) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) recomputeLocked() {
	e.totals = entity.ComputeTotals(e.items, e.settings)
}

func (e *Engine) itemEventsLocked(action, itemID string) []*event.Event {
	number := e.settings.InvoiceNumber
	return []*event.Event{
		event.NewEvent(event.TypeItemsChanged, e.draftID, e.profileID, number, map[string]interface{}{
			event.PayloadAction: action,
			event.PayloadItemID: itemID,
			event.PayloadItems:  cloneItems(e.items),
		}),
		event.NewEvent(event.TypeTotalsRecomputed, e.draftID, e.profileID, number, map[string]interface{}{
			event.PayloadTotals: e.totals,
		}),
	}
}

func (e *Engine) publish(evts ...*event.Event) {
	if e.dispatcher == nil {
		return
	}
	for _, evt := range evts {
		if err := e.dispatcher.Dispatch(context.Background(), evt); err != nil {
			e.logger.Warn("Event subscriber failed",
				zap.String("draft_id", e.draftID),
				zap.String("event_type", evt.Type.String()),
				zap.Error(err))
		}
	}
}

func cloneItems(items []entity.LineItem) []entity.LineItem {
	out := make([]entity.LineItem, len(items))
	copy(out, items)
	return out
}
