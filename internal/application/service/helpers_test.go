package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory port.ProfileStore that round-trips values through JSON
type memStore struct {
	mu      sync.Mutex
	entries map[string]string
	failPut error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]string)}
}

func (m *memStore) k(profileID, key string) string { return profileID + "/" + key }

func (m *memStore) Get(ctx context.Context, profileID, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	raw, ok := m.entries[m.k(profileID, key)]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("%w: %v", port.ErrCorruptEntry, err)
	}
	return true, nil
}

func (m *memStore) Put(ctx context.Context, profileID, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.entries[m.k(profileID, key)] = string(raw)
	return nil
}

func (m *memStore) Delete(ctx context.Context, profileID, key string) error {
	m.mu.Lock()
	delete(m.entries, m.k(profileID, key))
	m.mu.Unlock()
	return nil
}

func (m *memStore) Keys(ctx context.Context, profileID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.entries {
		if rest, ok := strings.CutPrefix(k, profileID+"/"); ok {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStore) putRaw(profileID, key, raw string) {
	m.mu.Lock()
	m.entries[m.k(profileID, key)] = raw
	m.mu.Unlock()
}

// mockLogger records messages
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// mockRenderer is a testify mock of port.DocumentRenderer
type mockRenderer struct {
	mock.Mock
	format string
}

func (m *mockRenderer) Format() string { return m.format }

func (m *mockRenderer) Render(ctx context.Context, view entity.InvoiceView) (*port.Document, error) {
	args := m.Called(ctx, view)
	doc, _ := args.Get(0).(*port.Document)
	return doc, args.Error(1)
}

// mockRasterizer is a testify mock of port.Rasterizer
type mockRasterizer struct {
	mock.Mock
}

func (m *mockRasterizer) FirstPagePNG(ctx context.Context, pdf []byte, dpi float64) ([]byte, error) {
	args := m.Called(ctx, pdf, dpi)
	img, _ := args.Get(0).([]byte)
	return img, args.Error(1)
}

// manualClock is a settable time source
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func strPtr(s string) *string { return &s }
