package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/config"
)

// Providers bundles the configured data source clients.
type Providers struct {
	GameLogs  GameLogProvider
	TeamStats TeamStatsProvider
	Lineups   LineupProvider
	Odds      OddsProvider
}

// NewProviders builds clients from configuration. Each named source gets its
// own rate-limited HTTP client so one provider's throttling never starves
// another.
func NewProviders(cfg *config.Config, logger *logrus.Logger) (*Providers, error) {
	statsCfg := cfg.SourceByName("stats_api")
	if statsCfg == nil {
		return nil, fmt.Errorf("stats_api data source is not configured")
	}

	statsHTTP := NewThrottledClient(statsClientConfig(), logger)
	statsClient := NewStatsAPIClient(statsHTTP, statsCfg.BaseURL, statsCfg.APIKey, statsCfg.Enabled, logger)

	providers := &Providers{
		GameLogs:  statsClient,
		TeamStats: statsClient,
		Lineups:   statsClient,
	}

	if oddsCfg := cfg.SourceByName("odds_api"); oddsCfg != nil {
		oddsHTTP := NewThrottledClient(oddsClientConfig(), logger)
		providers.Odds = NewOddsAPIClient(oddsHTTP, oddsCfg.BaseURL, oddsCfg.APIKey, oddsCfg.Enabled, logger)
	}

	return providers, nil
}

// statsClientConfig tunes the HTTP client for the stats API, which tolerates
// bursts but rate limits aggressively on sustained load.
func statsClientConfig() ClientConfig {
	cfg := DefaultClientConfig()
	cfg.RequestsPerSecond = 5.0
	cfg.Burst = 3
	cfg.Timeout = 20 * time.Second
	return cfg
}

// oddsClientConfig tunes the HTTP client for the odds API.
func oddsClientConfig() ClientConfig {
	cfg := DefaultClientConfig()
	cfg.RequestsPerSecond = 2.0
	cfg.MaxRetries = 3
	return cfg
}
