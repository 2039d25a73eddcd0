package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/models"
)

// PersistentStore is the durable cache layer backed by PostgreSQL. Payloads
// are stored as JSONB and read back into the caller's destination type.
type PersistentStore struct {
	db *database.DB
}

// NewPersistentStore creates a persistent cache store.
func NewPersistentStore(db *database.DB) *PersistentStore {
	return &PersistentStore{db: db}
}

// Put stores a payload under the key, replacing any existing row. A zero ttl
// stores the entry without an expiry.
func (ps *PersistentStore) Put(ctx context.Context, key Key, payload interface{}, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO cache_entries (cache_key, data_type, payload, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`

	_, err = ps.db.GetPool().Exec(ctx, query, key.String(), string(key.DataType), data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// Get reads a payload into dest. Expired rows behave as missing.
func (ps *PersistentStore) Get(ctx context.Context, key Key, dest interface{}) error {
	query := `
		SELECT payload FROM cache_entries
		WHERE cache_key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`

	var data []byte
	err := ps.db.GetPool().QueryRow(ctx, query, key.String()).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache payload: %w", err)
	}

	return nil
}

// Delete removes a single entry.
func (ps *PersistentStore) Delete(ctx context.Context, key Key) error {
	_, err := ps.db.GetPool().Exec(ctx, `DELETE FROM cache_entries WHERE cache_key = $1`, key.String())
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Sweep removes expired rows and returns how many were deleted.
func (ps *PersistentStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := ps.db.GetPool().Exec(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TieredCache layers the session cache over the persistent store. Reads fall
// through session to persistent and refill the session layer on a hit.
type TieredCache struct {
	session *SessionCache
	store   *PersistentStore
}

// NewTieredCache creates a tiered cache. store may be nil, in which case only
// the session layer is used.
func NewTieredCache(session *SessionCache, store *PersistentStore) *TieredCache {
	return &TieredCache{session: session, store: store}
}

// GetInto reads the entry into dest from the fastest layer that has it.
func (tc *TieredCache) GetInto(ctx context.Context, key Key, dest *json.RawMessage) error {
	if value, found := tc.session.Get(key); found {
		if raw, ok := value.(json.RawMessage); ok {
			*dest = raw
			return nil
		}
	}

	if tc.store == nil {
		return models.ErrNotFound
	}

	if err := tc.store.Get(ctx, key, dest); err != nil {
		return err
	}
	tc.session.Set(key, *dest)
	return nil
}

// Put writes through both layers.
func (tc *TieredCache) Put(ctx context.Context, key Key, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	tc.session.Set(key, json.RawMessage(data))

	if tc.store == nil {
		return nil
	}
	return tc.store.Put(ctx, key, payload, tc.session.TTLFor(key.DataType))
}
