package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/config"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		InjuryTTLHours:   6,
		MinutesTTLHours:  24,
		RoleTTLHours:     48,
		GameLogTTLHours:  168,
		MaxEntries:       100,
		SweepIntervalMin: 10,
	}
}

func TestKey_String(t *testing.T) {
	k := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataMinutes}
	assert.Equal(t, "p1:BOS:2026-01-15:minutes", k.String())
}

func TestSessionCache_TTLPerDataType(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())

	assert.Equal(t, 6*time.Hour, sc.TTLFor(DataInjury))
	assert.Equal(t, 24*time.Hour, sc.TTLFor(DataMinutes))
	assert.Equal(t, 48*time.Hour, sc.TTLFor(DataRole))
	assert.Equal(t, 168*time.Hour, sc.TTLFor(DataGameLogs))
	// Baselines persist until overwritten.
	assert.True(t, sc.TTLFor(DataBaseline) < 0)
}

func TestSessionCache_SetGetRoundTrip(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())
	key := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataMinutes}

	sc.Set(key, 34.5)

	got, found := sc.Get(key)
	require.True(t, found)
	assert.Equal(t, 34.5, got)
}

func TestSessionCache_ReplaceOnWrite(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())
	key := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataRole}

	sc.Set(key, "rotation")
	sc.Set(key, "starter")

	got, found := sc.Get(key)
	require.True(t, found)
	assert.Equal(t, "starter", got)
	assert.Equal(t, 1, sc.ItemCount())
}

func TestSessionCache_MissCountsAsMiss(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())

	_, found := sc.Get(Key{PlayerID: "ghost", DataType: DataInjury})
	assert.False(t, found)

	hits, misses, ratio := sc.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.0, ratio)
}

func TestSessionCache_InvalidatePlayer(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())
	k1 := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataMinutes}
	k2 := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataRole}
	k3 := Key{PlayerID: "p2", Team: "BOS", Date: "2026-01-15", DataType: DataMinutes}

	sc.Set(k1, 30.0)
	sc.Set(k2, "starter")
	sc.Set(k3, 18.0)

	sc.InvalidatePlayer("p1")

	_, found := sc.Get(k1)
	assert.False(t, found)
	_, found = sc.Get(k2)
	assert.False(t, found)
	_, found = sc.Get(k3)
	assert.True(t, found)
}

func TestSessionCache_ClearResetsStats(t *testing.T) {
	sc := NewSessionCache(testCacheConfig())
	key := Key{PlayerID: "p1", Team: "BOS", Date: "2026-01-15", DataType: DataMinutes}

	sc.Set(key, 30.0)
	sc.Get(key)
	sc.Clear()

	hits, misses, _ := sc.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(0), misses)
	assert.Equal(t, 0, sc.ItemCount())
}
