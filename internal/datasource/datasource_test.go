package datasource

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
)

func newTestHTTPClient() *ThrottledClient {
	cfg := DefaultClientConfig()
	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	return NewThrottledClient(cfg, logger.NewSilentLogger())
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"34:30", 34.5},
		{"12:00", 12.0},
		{"28.7", 28.7},
		{"", 0},
	}
	for _, tc := range cases {
		got, err := parseMinutes(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}

	_, err := parseMinutes("abc")
	assert.Error(t, err)
}

func TestStatsAPIClient_FetchPlayerGameLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"playerId":"p1","playerName":"Test Guard","teamTricode":"BOS","opponentTricode":"NYK",
			 "gameDate":"2026-01-14","homeGame":true,"min":"35:00","pts":31,"reb":5,"ast":7,
			 "fgm":11,"fga":22,"fg3m":4,"fg3a":9,"ftm":5,"fta":6,"tov":3},
			{"playerId":"p1","playerName":"Test Guard","teamTricode":"BOS","opponentTricode":"PHI",
			 "gameDate":"not-a-date","min":"30:00","pts":20}
		]`)
	}))
	defer server.Close()

	client := NewStatsAPIClient(newTestHTTPClient(), server.URL, "test-key", true, logger.NewSilentLogger())

	logs, err := client.FetchPlayerGameLogs(context.Background(), "p1", 20)
	require.NoError(t, err)
	// The malformed second row is dropped, not fatal.
	require.Len(t, logs, 1)
	assert.Equal(t, "p1", logs[0].PlayerID)
	assert.Equal(t, 35.0, logs[0].Minutes)
	assert.Equal(t, 31.0, logs[0].Points)
	assert.True(t, logs[0].Home)
}

func TestStatsAPIClient_DisabledSource(t *testing.T) {
	client := NewStatsAPIClient(newTestHTTPClient(), "http://unused.example", "k", false, logger.NewSilentLogger())

	_, err := client.FetchPlayerGameLogs(context.Background(), "p1", 10)
	require.Error(t, err)

	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "stats_api", dsErr.Source)
}

func TestStatsAPIClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewStatsAPIClient(newTestHTTPClient(), server.URL, "bad-key", true, logger.NewSilentLogger())

	_, err := client.FetchPlayerGameLogs(context.Background(), "p1", 10)
	require.Error(t, err)

	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeAuthenticationFailed, dsErr.Code)
}

func TestThrottledClient_BreakerOpensAfterFailureStreak(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	cfg.BreakerThreshold = 2
	client := NewThrottledClient(cfg, logger.NewSilentLogger())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		_, err = client.Do(ctx, req)
		require.Error(t, err)
	}
	require.EqualValues(t, 2, hits.Load())

	// The breaker is open now; the next request fails fast without reaching
	// the upstream.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.EqualValues(t, 2, hits.Load())
}

func TestOddsAPIClient_FetchMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"gameId":"g1","gameDate":"2026-01-15","homeTeam":"BOS","awayTeam":"NYK",
			 "marketType":"player_prop","playerId":"p1","playerName":"Test Guard",
			 "stat":"points","line":28.5,"selection":"over","odds":"1.87"},
			{"gameId":"g1","gameDate":"2026-01-15","homeTeam":"BOS","awayTeam":"NYK",
			 "marketType":"exotic_parlay","line":1.5,"selection":"yes","odds":"4.5"},
			{"gameId":"g1","gameDate":"2026-01-15","homeTeam":"BOS","awayTeam":"NYK",
			 "marketType":"totals","line":224.5,"selection":"over","odds":"0.95"}
		]`)
	}))
	defer server.Close()

	client := NewOddsAPIClient(newTestHTTPClient(), server.URL, "k", true, logger.NewSilentLogger())

	offers, err := client.FetchMarkets(context.Background(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// Unknown market types and odds at or below 1.0 are dropped.
	require.Len(t, offers, 1)
	assert.Equal(t, models.MarketPlayerProp, offers[0].MarketType)
	assert.Equal(t, "1.87", offers[0].Odds.String())
	assert.Equal(t, models.StatPoints, offers[0].Stat)
}
