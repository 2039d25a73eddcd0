package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/models"
)

func TestTieredCache_PutGetRoundTrip(t *testing.T) {
	tc := NewTieredCache(NewSessionCache(testCacheConfig()), nil)
	ctx := context.Background()
	key := Key{Team: "BOS", Date: "2026-01-15", DataType: DataInjury}

	require.NoError(t, tc.Put(ctx, key, 0.35))

	var raw json.RawMessage
	require.NoError(t, tc.GetInto(ctx, key, &raw))

	var impact float64
	require.NoError(t, json.Unmarshal(raw, &impact))
	assert.InDelta(t, 0.35, impact, 1e-9)
}

func TestTieredCache_MissWithoutStore(t *testing.T) {
	tc := NewTieredCache(NewSessionCache(testCacheConfig()), nil)

	var raw json.RawMessage
	err := tc.GetInto(context.Background(), Key{Team: "NYK", DataType: DataInjury}, &raw)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestTieredCache_ReplaceOnWrite(t *testing.T) {
	session := NewSessionCache(testCacheConfig())
	tc := NewTieredCache(session, nil)
	ctx := context.Background()
	key := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataRole}

	require.NoError(t, tc.Put(ctx, key, "rotation"))
	require.NoError(t, tc.Put(ctx, key, "starter"))

	var raw json.RawMessage
	require.NoError(t, tc.GetInto(ctx, key, &raw))

	var role string
	require.NoError(t, json.Unmarshal(raw, &role))
	assert.Equal(t, "starter", role)
	assert.Equal(t, 1, session.ItemCount())
}
