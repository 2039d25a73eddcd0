// Package config provides configuration management for the Positive Edge engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	DataSources DataSourcesConfig `mapstructure:"data_sources" validate:"required"`
	OddsFeed    OddsFeedConfig    `mapstructure:"odds_feed" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache" validate:"required"`
	Engine      EngineConfig      `mapstructure:"engine" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Features    FeaturesConfig    `mapstructure:"features" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// DataSourcesConfig represents stats provider configuration
type DataSourcesConfig struct {
	Sources  []DataSourceConfig `mapstructure:"sources" validate:"required,min=1"`
	Schedule ScheduleConfig     `mapstructure:"schedule" validate:"required"`
}

// DataSourceConfig represents a single stats provider configuration
type DataSourceConfig struct {
	Name      string `mapstructure:"name" validate:"required"`
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	BatchSize int    `mapstructure:"batch_size" validate:"omitempty,gt=0"`
	APIKey    string `mapstructure:"api_key"`
}

// ScheduleConfig represents data refresh scheduling
type ScheduleConfig struct {
	GameLogSync                string `mapstructure:"game_log_sync" validate:"required"`
	TeamStatsRefresh           string `mapstructure:"team_stats_refresh" validate:"required"`
	LivePollingIntervalSeconds int    `mapstructure:"live_polling_interval_seconds" validate:"required,gt=0"`
}

// OddsFeedConfig represents the live odds stream configuration
type OddsFeedConfig struct {
	StreamURL         string  `mapstructure:"stream_url" validate:"required"`
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	ConflateMs        int     `mapstructure:"conflate_ms" validate:"gte=0"`
	ReconnectRetries  int     `mapstructure:"reconnect_retries" validate:"required,gt=0"`
	ReconnectBackoff  float64 `mapstructure:"reconnect_backoff" validate:"required,gt=1"`
	HeartbeatInterval int     `mapstructure:"heartbeat_interval_seconds" validate:"required,gt=0"`
}

// CacheConfig holds per-data-type TTLs for the session cache, in hours.
// Baselines carry no TTL; they persist until overwritten.
type CacheConfig struct {
	InjuryTTLHours   int `mapstructure:"injury_ttl_hours" validate:"required,gt=0"`
	MinutesTTLHours  int `mapstructure:"minutes_ttl_hours" validate:"required,gt=0"`
	RoleTTLHours     int `mapstructure:"role_ttl_hours" validate:"required,gt=0"`
	GameLogTTLHours  int `mapstructure:"game_log_ttl_hours" validate:"required,gt=0"`
	MaxEntries       int `mapstructure:"max_entries" validate:"required,gt=0"`
	SweepIntervalMin int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
}

// EngineConfig represents recommendation engine and risk configuration
type EngineConfig struct {
	Bankroll             float64  `mapstructure:"bankroll" validate:"required,gt=0"`
	KellyFraction        float64  `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MaxStakePerBet       float64  `mapstructure:"max_stake_per_bet" validate:"required,gt=0"`
	MaxDailyLoss         float64  `mapstructure:"max_daily_loss" validate:"required,gt=0"`
	MaxExposure          float64  `mapstructure:"max_exposure" validate:"required,gt=0"`
	Markets              []string `mapstructure:"markets" validate:"required,min=1,markets"`
	MaxRecommendations   int      `mapstructure:"max_recommendations" validate:"required,gt=0"`
	StrictValidation     bool     `mapstructure:"strict_validation"`
	MaxConsecutiveLosses int      `mapstructure:"max_consecutive_losses" validate:"required,gt=0"`
	MaxDrawdownPercent   float64  `mapstructure:"max_drawdown_percent" validate:"required,gt=0,lt=1"`
	SeasonStart          string   `mapstructure:"season_start" validate:"required,gamedate"`
	SeasonEnd            string   `mapstructure:"season_end" validate:"required,gamedate"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	LiveOddsEnabled       bool `mapstructure:"live_odds_enabled"`
	AutoSettlementEnabled bool `mapstructure:"auto_settlement_enabled"`
	TeamMarketsEnabled    bool `mapstructure:"team_markets_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SourceByName returns the named data source configuration, or nil
func (c *Config) SourceByName(name string) *DataSourceConfig {
	for i := range c.DataSources.Sources {
		if c.DataSources.Sources[i].Name == name {
			return &c.DataSources.Sources[i]
		}
	}
	return nil
}
