package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
)

// StatsAPIClient implements GameLogProvider and TeamStatsProvider against the
// league stats API.
type StatsAPIClient struct {
	httpClient *ThrottledClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

// statsAPIGameLog represents a player game line from the stats API
type statsAPIGameLog struct {
	PlayerID   string  `json:"playerId"`
	PlayerName string  `json:"playerName"`
	TeamCode   string  `json:"teamTricode"`
	Opponent   string  `json:"opponentTricode"`
	GameDate   string  `json:"gameDate"`
	HomeGame   bool    `json:"homeGame"`
	Minutes    string  `json:"min"` // "MM:SS"
	Points     float64 `json:"pts"`
	Rebounds   float64 `json:"reb"`
	OffReb     float64 `json:"oreb"`
	DefReb     float64 `json:"dreb"`
	Assists    float64 `json:"ast"`
	Steals     float64 `json:"stl"`
	Blocks     float64 `json:"blk"`
	Turnovers  float64 `json:"tov"`
	Fouls      float64 `json:"pf"`
	FGM        float64 `json:"fgm"`
	FGA        float64 `json:"fga"`
	TPM        float64 `json:"fg3m"`
	TPA        float64 `json:"fg3a"`
	FTM        float64 `json:"ftm"`
	FTA        float64 `json:"fta"`
	PlusMinus  float64 `json:"plusMinusPoints"`
}

// statsAPITeamRecord represents season team averages from the stats API
type statsAPITeamRecord struct {
	TeamCode         string  `json:"teamTricode"`
	GamesPlayed      int     `json:"gp"`
	AvgPointsFor     float64 `json:"ptsFor"`
	AvgPointsAgainst float64 `json:"ptsAgainst"`
	TotalPoints      float64 `json:"ptsTotal"`
	WinPct           float64 `json:"winPct"`
	FavoriteWinPct   float64 `json:"favWinPct"`
	UnderdogWinPct   float64 `json:"dogWinPct"`
	ClutchWinPct     float64 `json:"clutchWinPct"`
	ReliabilityPct   float64 `json:"reliabilityPct"`
}

// NewStatsAPIClient creates a new stats API client
func NewStatsAPIClient(httpClient *ThrottledClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *StatsAPIClient {
	if baseURL == "" {
		baseURL = "https://api.nbastats.example/v2"
	}
	return &StatsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// FetchPlayerGameLogs retrieves a player's recent game logs, most recent first
func (c *StatsAPIClient) FetchPlayerGameLogs(ctx context.Context, playerID string, limit int) ([]models.GameLog, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/players/%s/gamelogs?limit=%d", c.baseURL, playerID, limit)

	var raw []statsAPIGameLog
	if err := c.getJSON(ctx, url, &raw); err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, err
	}
	metrics.RecordDataSourceRequest(c.Name(), "ok")

	logs := make([]models.GameLog, 0, len(raw))
	for _, entry := range raw {
		gl, err := c.convertGameLog(&entry)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"player_id": entry.PlayerID,
				"game_date": entry.GameDate,
			}).Warn("Dropping malformed game log")
			continue
		}
		logs = append(logs, *gl)
	}

	return logs, nil
}

// FetchGameLogsByDate retrieves every player line for games on one date
func (c *StatsAPIClient) FetchGameLogsByDate(ctx context.Context, date time.Time) ([]models.GameLog, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/gamelogs?date=%s", c.baseURL, date.Format("2006-01-02"))

	var raw []statsAPIGameLog
	if err := c.getJSON(ctx, url, &raw); err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, err
	}
	metrics.RecordDataSourceRequest(c.Name(), "ok")

	logs := make([]models.GameLog, 0, len(raw))
	for _, entry := range raw {
		gl, err := c.convertGameLog(&entry)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"player_id": entry.PlayerID,
				"game_date": entry.GameDate,
			}).Warn("Dropping malformed game log")
			continue
		}
		logs = append(logs, *gl)
	}

	return logs, nil
}

// FetchTeamStats retrieves season averages for every team
func (c *StatsAPIClient) FetchTeamStats(ctx context.Context) ([]*models.TeamStats, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/teams/stats", c.baseURL)

	var raw []statsAPITeamRecord
	if err := c.getJSON(ctx, url, &raw); err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, err
	}
	metrics.RecordDataSourceRequest(c.Name(), "ok")

	stats := make([]*models.TeamStats, 0, len(raw))
	for _, entry := range raw {
		stats = append(stats, &models.TeamStats{
			Team:             entry.TeamCode,
			GamesPlayed:      entry.GamesPlayed,
			AvgPointsFor:     entry.AvgPointsFor,
			AvgPointsAgainst: entry.AvgPointsAgainst,
			TotalPoints:      entry.TotalPoints,
			WinPct:           entry.WinPct,
			FavoriteWinPct:   entry.FavoriteWinPct,
			UnderdogWinPct:   entry.UnderdogWinPct,
			ClutchWinPct:     entry.ClutchWinPct,
			ReliabilityPct:   entry.ReliabilityPct,
		})
	}

	return stats, nil
}

// statsAPIInjuryEntry represents one availability line from the stats API
type statsAPIInjuryEntry struct {
	PlayerID   string  `json:"playerId"`
	PlayerName string  `json:"playerName"`
	Status     string  `json:"status"` // out, doubtful, questionable, probable
	AvgMinutes float64 `json:"avgMin"`
}

// FetchLineupReport retrieves the availability report for one team and folds
// it into an opportunity score. Players listed but likely to play score zero.
func (c *StatsAPIClient) FetchLineupReport(ctx context.Context, team string) (*LineupReport, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/teams/%s/injuries", c.baseURL, team)

	var raw []statsAPIInjuryEntry
	if err := c.getJSON(ctx, url, &raw); err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, err
	}
	metrics.RecordDataSourceRequest(c.Name(), "ok")

	report := &LineupReport{Team: team, FetchedAt: time.Now()}
	freed := 0.0
	for _, entry := range raw {
		weight := injuryStatusWeight(entry.Status)
		if weight == 0 {
			continue
		}
		freed += weight * entry.AvgMinutes
		if weight >= 1 {
			report.PlayersOut = append(report.PlayersOut, entry.PlayerName)
		}
	}

	// One 36-minute starter out frees roughly 0.5 on this scale; anything
	// past two starters saturates.
	report.OpportunityScore = freed / 72.0
	if report.OpportunityScore > 1 {
		report.OpportunityScore = 1
	}

	return report, nil
}

// injuryStatusWeight maps a listing status to the fraction of the player's
// minutes treated as freed up.
func injuryStatusWeight(status string) float64 {
	switch strings.ToLower(status) {
	case "out":
		return 1.0
	case "doubtful":
		return 0.75
	case "questionable":
		return 0.4
	default:
		return 0
	}
}

// Name returns the data source name
func (c *StatsAPIClient) Name() string {
	return "stats_api"
}

// IsEnabled returns whether this data source is enabled
func (c *StatsAPIClient) IsEnabled() bool {
	return c.enabled
}

// getJSON executes an authenticated GET and decodes the response
func (c *StatsAPIClient) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return NewDataSourceError(c.Name(), ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", nil)
	case http.StatusNotFound:
		return NewDataSourceError(c.Name(), ErrCodeNotFound, "resource not found", nil)
	case http.StatusTooManyRequests:
		return NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	default:
		body, _ := io.ReadAll(resp.Body)
		return NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	return nil
}

// convertGameLog normalizes a provider game line
func (c *StatsAPIClient) convertGameLog(entry *statsAPIGameLog) (*models.GameLog, error) {
	gameDate, err := time.Parse("2006-01-02", entry.GameDate)
	if err != nil {
		return nil, fmt.Errorf("invalid game date %q: %w", entry.GameDate, err)
	}

	minutes, err := parseMinutes(entry.Minutes)
	if err != nil {
		return nil, err
	}

	return &models.GameLog{
		PlayerID:   entry.PlayerID,
		PlayerName: entry.PlayerName,
		Team:       entry.TeamCode,
		Opponent:   entry.Opponent,
		GameDate:   gameDate,
		Home:       entry.HomeGame,
		Minutes:    minutes,
		Points:     entry.Points,
		Rebounds:   entry.Rebounds,
		OffReb:     entry.OffReb,
		DefReb:     entry.DefReb,
		Assists:    entry.Assists,
		Steals:     entry.Steals,
		Blocks:     entry.Blocks,
		Turnovers:  entry.Turnovers,
		Fouls:      entry.Fouls,
		FGM:        entry.FGM,
		FGA:        entry.FGA,
		TPM:        entry.TPM,
		TPA:        entry.TPA,
		FTM:        entry.FTM,
		FTA:        entry.FTA,
		PlusMinus:  entry.PlusMinus,
		CreatedAt:  time.Now(),
	}, nil
}

// parseMinutes converts the provider's "MM:SS" minutes format to a float.
// A bare number is accepted as already-decimal minutes.
func parseMinutes(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		mins, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q: %w", s, err)
		}
		secs, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q: %w", s, err)
		}
		return mins + secs/60.0, nil
	}

	mins, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q: %w", s, err)
	}
	return mins, nil
}
