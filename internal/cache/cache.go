// Package cache provides a two-layer cache for scouting data: an in-memory
// session layer with per-data-type TTLs and a persistent PostgreSQL layer that
// survives restarts. Writes replace; entries are never merged in place.
package cache

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/metrics"
)

// DataType identifies what kind of scouting data an entry holds. Each type
// carries its own staleness budget.
type DataType string

const (
	DataInjury   DataType = "injury"
	DataMinutes  DataType = "minutes"
	DataUsage    DataType = "usage"
	DataRole     DataType = "role"
	DataGameLogs DataType = "game_logs"
	DataBaseline DataType = "baseline"
)

// Key uniquely identifies a cache entry.
type Key struct {
	PlayerID string
	Team     string
	Date     string // YYYY-MM-DD game date the data was fetched for
	DataType DataType
}

// String returns the string form used by both cache layers.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.PlayerID, k.Team, k.Date, k.DataType)
}

// SessionCache is the in-memory layer. TTLs come from configuration per data
// type; baselines never expire.
type SessionCache struct {
	cache      *cache.Cache
	ttls       map[DataType]time.Duration
	maxEntries int
	mu         sync.RWMutex
	hitCount   uint64
	missCount  uint64
}

// NewSessionCache creates a session cache with TTLs from configuration.
func NewSessionCache(cfg *config.CacheConfig) *SessionCache {
	sweep := time.Duration(cfg.SweepIntervalMin) * time.Minute
	return &SessionCache{
		cache: cache.New(cache.NoExpiration, sweep),
		ttls: map[DataType]time.Duration{
			DataInjury:   time.Duration(cfg.InjuryTTLHours) * time.Hour,
			DataMinutes:  time.Duration(cfg.MinutesTTLHours) * time.Hour,
			DataUsage:    time.Duration(cfg.MinutesTTLHours) * time.Hour,
			DataRole:     time.Duration(cfg.RoleTTLHours) * time.Hour,
			DataGameLogs: time.Duration(cfg.GameLogTTLHours) * time.Hour,
			DataBaseline: cache.NoExpiration,
		},
		maxEntries: cfg.MaxEntries,
	}
}

// TTLFor returns the staleness budget for a data type.
func (sc *SessionCache) TTLFor(dt DataType) time.Duration {
	if ttl, ok := sc.ttls[dt]; ok {
		return ttl
	}
	return time.Duration(24) * time.Hour
}

// Get retrieves a cached value. The second return is false on miss or expiry.
func (sc *SessionCache) Get(key Key) (interface{}, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if value, found := sc.cache.Get(key.String()); found {
		sc.hitCount++
		sc.updateMetrics()
		return value, true
	}

	sc.missCount++
	sc.updateMetrics()
	return nil, false
}

// Set stores a value, replacing any existing entry for the key.
func (sc *SessionCache) Set(key Key, value interface{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cache.ItemCount() >= sc.maxEntries {
		sc.cache.DeleteExpired()
	}

	sc.cache.Set(key.String(), value, sc.TTLFor(key.DataType))
}

// InvalidatePlayer removes every session entry for a player. Used when an
// injury report or role change lands mid-session.
func (sc *SessionCache) InvalidatePlayer(playerID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	prefix := playerID + ":"
	for k := range sc.cache.Items() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			sc.cache.Delete(k)
		}
	}
}

// Clear flushes the session layer.
func (sc *SessionCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cache.Flush()
	sc.hitCount = 0
	sc.missCount = 0
}

// Stats returns cache statistics.
func (sc *SessionCache) Stats() (hits, misses uint64, ratio float64) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.statsLocked()
}

func (sc *SessionCache) statsLocked() (hits, misses uint64, ratio float64) {
	hits = sc.hitCount
	misses = sc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (sc *SessionCache) updateMetrics() {
	_, _, ratio := sc.statsLocked()
	metrics.CacheHitRatio.Set(ratio)
}

// ItemCount returns the number of live session entries.
func (sc *SessionCache) ItemCount() int {
	return sc.cache.ItemCount()
}
