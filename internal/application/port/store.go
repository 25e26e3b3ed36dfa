package port

import (
	"context"
	"errors"
)

// Profile store keys
const (
	KeyIssuerProfile    = "issuer_profile"
	KeyRecentRecipients = "recent_recipients"
	KeyDisplayTheme     = "display_theme"
	KeyDisplayName      = "display_name"
)

// ErrCorruptEntry is returned when a stored value cannot be decoded into the requested type
var ErrCorruptEntry = errors.New("corrupt profile entry")

// ProfileStore persists JSON values per profile and key.
// Get reports false with a nil error when the key has never been written.
type ProfileStore interface {
	Get(ctx context.Context, profileID, key string, dest interface{}) (bool, error)
	Put(ctx context.Context, profileID, key string, value interface{}) error
	Delete(ctx context.Context, profileID, key string) error
	Keys(ctx context.Context, profileID string) ([]string, error)
}

// TransactionManager runs fn inside a transaction carried by the context.
// Nested calls join the outer transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
