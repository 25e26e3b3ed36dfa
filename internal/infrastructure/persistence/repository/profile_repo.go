package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ProfileRepository implements port.ProfileStore on the profile_entries table.
// Values are stored as JSON text.
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) port.ProfileStore {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Get decodes the value stored under (profileID, key) into dest
func (r *ProfileRepository) Get(ctx context.Context, profileID, key string, dest interface{}) (bool, error) {
	query := `SELECT value FROM profile_entries WHERE profile_id = ? AND key = ?`

	var raw string
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, profileID, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read profile entry",
			zap.String("profile_id", profileID),
			zap.String("key", key),
			zap.Error(err))
		return false, fmt.Errorf("failed to read profile entry %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.logger.Warn("Corrupt profile entry",
			zap.String("profile_id", profileID),
			zap.String("key", key),
			zap.Error(err))
		return false, fmt.Errorf("%w %s: %v", port.ErrCorruptEntry, key, err)
	}
	return true, nil
}

// Put stores value under (profileID, key), replacing any previous value
func (r *ProfileRepository) Put(ctx context.Context, profileID, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode profile entry %s: %w", key, err)
	}

	query := `
		INSERT INTO profile_entries (profile_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(profile_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, profileID, key, string(raw)); err != nil {
		r.logger.Error("Failed to write profile entry",
			zap.String("profile_id", profileID),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to write profile entry %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry; deleting a missing key is not an error
func (r *ProfileRepository) Delete(ctx context.Context, profileID, key string) error {
	query := `DELETE FROM profile_entries WHERE profile_id = ? AND key = ?`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, profileID, key); err != nil {
		r.logger.Error("Failed to delete profile entry",
			zap.String("profile_id", profileID),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to delete profile entry %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys written for a profile in key order
func (r *ProfileRepository) Keys(ctx context.Context, profileID string) ([]string, error) {
	query := `SELECT key FROM profile_entries WHERE profile_id = ? ORDER BY key`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile entries: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan profile key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Verify interface compliance
var _ port.ProfileStore = (*ProfileRepository)(nil)
