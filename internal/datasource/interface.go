// Package datasource provides clients for external stats and odds providers.
// Providers normalize everything at this boundary; nothing downstream ever
// sees raw provider field names.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expert-sys/positive-edge/internal/models"
)

// GameLogProvider fetches player box-score lines from an external provider
type GameLogProvider interface {
	// FetchPlayerGameLogs retrieves a player's recent game logs, most recent first
	FetchPlayerGameLogs(ctx context.Context, playerID string, limit int) ([]models.GameLog, error)

	// FetchGameLogsByDate retrieves every player line for games on one date
	FetchGameLogsByDate(ctx context.Context, date time.Time) ([]models.GameLog, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// TeamStatsProvider fetches season-level team averages
type TeamStatsProvider interface {
	FetchTeamStats(ctx context.Context) ([]*models.TeamStats, error)
	Name() string
	IsEnabled() bool
}

// LineupReport summarizes a team's availability picture ahead of a game.
type LineupReport struct {
	Team       string    `json:"team"`
	PlayersOut []string  `json:"players_out"`
	FetchedAt  time.Time `json:"fetched_at"`

	// OpportunityScore estimates how much production the listed absences
	// free up for the remaining rotation, in [0, 1]. Roughly: one full-time
	// starter out scores 0.5.
	OpportunityScore float64 `json:"opportunity_score"`
}

// LineupProvider fetches injury and availability reports per team
type LineupProvider interface {
	FetchLineupReport(ctx context.Context, team string) (*LineupReport, error)
	Name() string
	IsEnabled() bool
}

// MarketOffer represents one priced market from an odds provider. Odds stay
// decimal.Decimal until the engine boundary to avoid float drift on ingest.
type MarketOffer struct {
	GameID     string            `json:"game_id"`
	GameDate   time.Time         `json:"game_date"`
	HomeTeam   string            `json:"home_team"`
	AwayTeam   string            `json:"away_team"`
	MarketType models.MarketType `json:"market_type"`
	PlayerID   string            `json:"player_id,omitempty"`
	PlayerName string            `json:"player_name,omitempty"`
	Stat       models.StatType   `json:"stat,omitempty"`
	Line       float64           `json:"line"`
	Selection  string            `json:"selection"`
	Odds       decimal.Decimal   `json:"odds"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// OddsProvider fetches priced markets for a slate
type OddsProvider interface {
	FetchMarkets(ctx context.Context, date time.Time) ([]MarketOffer, error)
	Name() string
	IsEnabled() bool
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Error constructors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

const dataSourceDisabledMsg = "data source is disabled"

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
