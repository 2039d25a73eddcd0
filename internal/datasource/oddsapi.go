package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
)

// OddsAPIClient implements OddsProvider against the odds provider's REST API.
// The websocket stream handles live moves; this client fetches the slate
// snapshot a cycle starts from.
type OddsAPIClient struct {
	httpClient *ThrottledClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

// oddsAPIMarket represents one priced market from the odds API
type oddsAPIMarket struct {
	GameID     string  `json:"gameId"`
	GameDate   string  `json:"gameDate"`
	HomeTeam   string  `json:"homeTeam"`
	AwayTeam   string  `json:"awayTeam"`
	MarketType string  `json:"marketType"`
	PlayerID   *string `json:"playerId"`
	PlayerName *string `json:"playerName"`
	Stat       *string `json:"stat"`
	Line       float64 `json:"line"`
	Selection  string  `json:"selection"`
	Odds       string  `json:"odds"` // decimal string, e.g. "1.87"
}

// NewOddsAPIClient creates a new odds API client
func NewOddsAPIClient(httpClient *ThrottledClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *OddsAPIClient {
	if baseURL == "" {
		baseURL = "https://api.oddsprovider.example/v1"
	}
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// FetchMarkets retrieves every priced market for a slate date
func (c *OddsAPIClient) FetchMarkets(ctx context.Context, date time.Time) ([]MarketOffer, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/markets?date=%s", c.baseURL, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to fetch markets", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		body, _ := io.ReadAll(resp.Body)
		return nil, NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var raw []oddsAPIMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.RecordDataSourceRequest(c.Name(), "error")
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}
	metrics.RecordDataSourceRequest(c.Name(), "ok")

	offers := make([]MarketOffer, 0, len(raw))
	for _, m := range raw {
		offer, err := c.convertMarket(&m)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": m.GameID,
				"market":  m.MarketType,
			}).Warn("Dropping malformed market")
			continue
		}
		offers = append(offers, *offer)
	}

	return offers, nil
}

// Name returns the data source name
func (c *OddsAPIClient) Name() string {
	return "odds_api"
}

// IsEnabled returns whether this data source is enabled
func (c *OddsAPIClient) IsEnabled() bool {
	return c.enabled
}

// convertMarket normalizes a provider market
func (c *OddsAPIClient) convertMarket(m *oddsAPIMarket) (*MarketOffer, error) {
	gameDate, err := time.Parse("2006-01-02", m.GameDate)
	if err != nil {
		return nil, fmt.Errorf("invalid game date %q: %w", m.GameDate, err)
	}

	odds, err := decimal.NewFromString(m.Odds)
	if err != nil {
		return nil, fmt.Errorf("invalid odds %q: %w", m.Odds, err)
	}
	if odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("odds %s not above 1.0", m.Odds)
	}

	marketType := models.MarketType(m.MarketType)
	switch marketType {
	case models.MarketPlayerProp, models.MarketTeamSides, models.MarketTotals:
	default:
		return nil, fmt.Errorf("unknown market type %q", m.MarketType)
	}

	offer := &MarketOffer{
		GameID:     m.GameID,
		GameDate:   gameDate,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		MarketType: marketType,
		Line:       m.Line,
		Selection:  m.Selection,
		Odds:       odds,
		FetchedAt:  time.Now(),
	}

	if m.PlayerID != nil {
		offer.PlayerID = *m.PlayerID
	}
	if m.PlayerName != nil {
		offer.PlayerName = *m.PlayerName
	}
	if m.Stat != nil {
		offer.Stat = models.StatType(*m.Stat)
	}

	return offer, nil
}
