package bot

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/cache"
	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

type mockOddsProvider struct {
	mock.Mock
}

func (m *mockOddsProvider) FetchMarkets(ctx context.Context, date time.Time) ([]datasource.MarketOffer, error) {
	args := m.Called(ctx, date)
	if offers, ok := args.Get(0).([]datasource.MarketOffer); ok {
		return offers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOddsProvider) Name() string    { return "mock_odds" }
func (m *mockOddsProvider) IsEnabled() bool { return true }

func testConfig() *config.Config {
	return &config.Config{
		Engine: *testEngineConfig(),
		DataSources: config.DataSourcesConfig{
			Schedule: config.ScheduleConfig{
				GameLogSync:                "0 6 * * *",
				TeamStatsRefresh:           "0 7 * * *",
				LivePollingIntervalSeconds: 60,
			},
		},
		Features: config.FeaturesConfig{
			TeamMarketsEnabled: true,
		},
	}
}

type engineFixture struct {
	engine   *Engine
	odds     *mockOddsProvider
	gameLogs *repository.MockGameLogRepository
	teams    *repository.MockTeamStatsRepository
	recs     *repository.MockRecommendationRepository
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	odds := new(mockOddsProvider)
	gameLogs := new(repository.MockGameLogRepository)
	teams := new(repository.MockTeamStatsRepository)
	recs := new(repository.MockRecommendationRepository)

	repos := &repository.Repositories{
		GameLog:        gameLogs,
		TeamStats:      teams,
		Recommendation: recs,
	}

	cfg := testConfig()
	log := logger.NewSilentLogger()
	rm := NewRiskManager(&cfg.Engine, recs, log)
	cb := NewCircuitBreaker(CircuitBreakerConfigFromEngine(&cfg.Engine), log)

	engine, err := NewEngine(cfg, repos, odds, rm, cb, nil, log)
	require.NoError(t, err)

	return &engineFixture{
		engine:   engine,
		odds:     odds,
		gameLogs: gameLogs,
		teams:    teams,
		recs:     recs,
	}
}

// steadyScorerLogs fabricates a consistent high-minutes scorer: ~30 points in
// 35 minutes every night.
func steadyScorerLogs(n int, lastGame time.Time) []models.GameLog {
	logs := make([]models.GameLog, 0, n)
	for i := 0; i < n; i++ {
		points := 30.0
		if i%2 == 0 {
			points = 28.0
		}
		logs = append(logs, models.GameLog{
			PlayerID:  "p1",
			Team:      "BOS",
			Opponent:  "NYK",
			GameDate:  lastGame.AddDate(0, 0, -2*i),
			Minutes:   35.0,
			Points:    points,
			Rebounds:  5.0,
			Assists:   6.0,
			FGA:       20.0,
			FGM:       10.0,
			FTA:       6.0,
			FTM:       5.0,
			Turnovers: 2.0,
		})
	}
	return logs
}

func propOffer(line float64, oddsStr string) datasource.MarketOffer {
	return datasource.MarketOffer{
		GameID:     "g1",
		GameDate:   time.Now().AddDate(0, 0, 1),
		HomeTeam:   "BOS",
		AwayTeam:   "NYK",
		MarketType: models.MarketPlayerProp,
		PlayerID:   "p1",
		PlayerName: "Steady Scorer",
		Stat:       models.StatPoints,
		Line:       line,
		Selection:  "over",
		Odds:       decimal.RequireFromString(oddsStr),
	}
}

func TestRunCycle_SurfacesStrongProp(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	date := time.Now()

	lastGame := time.Now().AddDate(0, 0, -2)
	f.odds.On("FetchMarkets", ctx, date).Return([]datasource.MarketOffer{propOffer(20.5, "1.80")}, nil)
	f.gameLogs.On("GetByPlayer", ctx, "p1", playerLogWindow).Return(steadyScorerLogs(25, lastGame), nil)
	f.teams.On("GetByTeam", ctx, mock.Anything).Return(nil, models.ErrNotFound)
	f.recs.On("Create", ctx, mock.AnythingOfType("*models.Recommendation")).Return(nil)

	recs, err := f.engine.RunCycle(ctx, date)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, models.MarketPlayerProp, rec.MarketType)
	assert.Equal(t, "p1", rec.PlayerID)
	assert.True(t, rec.ModelBacked)
	assert.Equal(t, models.BetStatusPending, rec.Status)
	assert.Greater(t, rec.Probability, 0.6)
	assert.LessOrEqual(t, rec.Probability, 0.82)
	assert.InDelta(t, rec.Probability*rec.Odds-1.0, rec.EV, 1e-9)
	assert.Greater(t, rec.Stake, 0.0)
	assert.LessOrEqual(t, rec.Confidence, rec.Probability*100.0)

	f.recs.AssertExpectations(t)
}

func TestRunCycle_OddsFetchFailureIsFatal(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	date := time.Now()

	f.odds.On("FetchMarkets", ctx, date).Return(nil, assert.AnError)

	_, err := f.engine.RunCycle(ctx, date)
	assert.Error(t, err)
}

func TestRunCycle_ThinSampleSkipped(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	date := time.Now()

	f.odds.On("FetchMarkets", ctx, date).Return([]datasource.MarketOffer{propOffer(20.5, "1.80")}, nil)
	f.gameLogs.On("GetByPlayer", ctx, "p1", playerLogWindow).Return(steadyScorerLogs(3, time.Now()), nil)
	f.teams.On("GetByTeam", ctx, mock.Anything).Return(nil, models.ErrNotFound)

	recs, err := f.engine.RunCycle(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, recs)
	f.recs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunCycle_FailedCandidateIsDropped(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	date := time.Now()

	f.odds.On("FetchMarkets", ctx, date).Return([]datasource.MarketOffer{propOffer(20.5, "1.80")}, nil)
	f.gameLogs.On("GetByPlayer", ctx, "p1", playerLogWindow).Return(nil, assert.AnError)

	recs, err := f.engine.RunCycle(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRunCycle_DisabledMarketIgnored(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	date := time.Now()

	offer := propOffer(20.5, "1.80")
	offer.MarketType = models.MarketTotals
	offer.PlayerID = ""
	f.engine.enabledMarkets = map[models.MarketType]bool{models.MarketPlayerProp: true}

	f.odds.On("FetchMarkets", ctx, date).Return([]datasource.MarketOffer{offer}, nil)

	recs, err := f.engine.RunCycle(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, recs)
	f.gameLogs.AssertNotCalled(t, "GetTeamGameTotals", mock.Anything, mock.Anything, mock.Anything)
}

func TestGradeTier(t *testing.T) {
	f := newEngineFixture(t)

	tests := []struct {
		name       string
		market     models.MarketType
		confidence float64
		ev         float64
		wantTier   models.Tier
		wantProm   bool
		wantOK     bool
	}{
		{"player prop A", models.MarketPlayerProp, 70, 0.02, models.TierA, false, true},
		{"player prop exact A threshold", models.MarketPlayerProp, 65, 0.02, models.TierA, false, true},
		{"player prop B", models.MarketPlayerProp, 55, 0.02, models.TierB, false, true},
		{"large-edge B promoted to A", models.MarketPlayerProp, 55, 0.12, models.TierA, true, true},
		{"player prop C", models.MarketPlayerProp, 40, 0.02, models.TierC, false, true},
		{"totals C threshold is stricter", models.MarketTotals, 40, 0.02, "", false, false},
		{"below every threshold", models.MarketPlayerProp, 20, 0.02, "", false, false},
		{"unknown market", models.MarketType("exotic"), 90, 0.02, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, promoted, ok := f.engine.gradeTier(tt.market, tt.confidence, tt.ev)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantTier, tier)
				assert.Equal(t, tt.wantProm, promoted)
			}
		})
	}
}

func TestPropOutcomes(t *testing.T) {
	logs := []models.GameLog{
		{Points: 25},
		{Points: 18},
		{Points: 31},
	}

	over := propOutcomes(logs, models.StatPoints, 20.5, "over")
	assert.Equal(t, []bool{true, false, true}, over)

	under := propOutcomes(logs, models.StatPoints, 20.5, "under")
	assert.Equal(t, []bool{false, true, false}, under)
}

func TestTeamOutcomes(t *testing.T) {
	totals := []models.TeamGameTotal{
		{Points: 115, Margin: 5},   // total 225, won
		{Points: 100, Margin: -10}, // total 210, lost
	}

	sides := &datasource.MarketOffer{MarketType: models.MarketTeamSides, Selection: "home"}
	assert.Equal(t, []bool{true, false}, teamOutcomes(totals, sides))

	overs := &datasource.MarketOffer{MarketType: models.MarketTotals, Selection: "over", Line: 220.5}
	assert.Equal(t, []bool{true, false}, teamOutcomes(totals, overs))

	unders := &datasource.MarketOffer{MarketType: models.MarketTotals, Selection: "under", Line: 220.5}
	assert.Equal(t, []bool{false, true}, teamOutcomes(totals, unders))
}

func TestSeasonPer36(t *testing.T) {
	logs := []models.GameLog{
		{Points: 24, Minutes: 36},
		{Points: 12, Minutes: 18},
	}
	// 36 points over 54 minutes = 24 per 36.
	assert.InDelta(t, 24.0, seasonPer36(logs, models.StatPoints), 1e-9)

	assert.Equal(t, 0.0, seasonPer36([]models.GameLog{{Points: 10}}, models.StatPoints))
}

func TestContextFactors(t *testing.T) {
	gameDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	f := contextFactors(gameDate.AddDate(0, 0, -1), gameDate, true, nil, nil)
	assert.True(t, f.BackToBack)
	assert.True(t, f.HomeAdvantage)

	team := &models.TeamStats{ClutchWinPct: 0.60}
	opp := &models.TeamStats{AvgPointsFor: 118, AvgPointsAgainst: 116, ClutchWinPct: 0.45}
	f = contextFactors(gameDate.AddDate(0, 0, -3), gameDate, false, team, opp)
	assert.False(t, f.BackToBack)
	assert.Equal(t, 3, f.RestDays)
	assert.InDelta(t, 17.0, f.PaceDiff, 1e-9)
	assert.InDelta(t, 6.0, f.DefenseDiff, 1e-9)
	assert.InDelta(t, 0.15, f.ClutchDiff, 1e-9)
}

func TestEngineStartStop(t *testing.T) {
	f := newEngineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.recs.On("GetPending", mock.Anything).Return([]*models.Recommendation{}, nil)
	f.recs.On("GetSettled", mock.Anything, mock.Anything, mock.Anything).Return([]*models.Recommendation{}, nil)

	require.NoError(t, f.engine.Start(ctx))
	assert.Error(t, f.engine.Start(ctx), "double start must fail")

	status := f.engine.GetStatus()
	assert.True(t, status.Running)

	require.NoError(t, f.engine.Stop())
	assert.NoError(t, f.engine.Stop(), "double stop is a no-op")
}

type mockLineupProvider struct {
	mock.Mock
}

func (m *mockLineupProvider) FetchLineupReport(ctx context.Context, team string) (*datasource.LineupReport, error) {
	args := m.Called(ctx, team)
	if report, ok := args.Get(0).(*datasource.LineupReport); ok {
		return report, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLineupProvider) Name() string    { return "mock_lineups" }
func (m *mockLineupProvider) IsEnabled() bool { return true }

func TestLineupImpact(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gameDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	// Without a provider the impact is neutral.
	assert.Equal(t, 0.0, f.engine.lineupImpact(ctx, "BOS", gameDate))

	lineups := new(mockLineupProvider)
	lineups.On("FetchLineupReport", mock.Anything, "BOS").
		Return(&datasource.LineupReport{Team: "BOS", OpportunityScore: 0.35}, nil).Once()
	f.engine.SetLineupProvider(lineups)
	f.engine.sessionCache = cache.NewSessionCache(&config.CacheConfig{
		InjuryTTLHours:   6,
		MinutesTTLHours:  24,
		RoleTTLHours:     48,
		GameLogTTLHours:  168,
		MaxEntries:       100,
		SweepIntervalMin: 10,
	})

	assert.InDelta(t, 0.35, f.engine.lineupImpact(ctx, "BOS", gameDate), 1e-9)

	// Second lookup hits the session cache; Once() enforces a single fetch.
	assert.InDelta(t, 0.35, f.engine.lineupImpact(ctx, "BOS", gameDate), 1e-9)
	lineups.AssertExpectations(t)
}

func TestLineupImpact_ProviderErrorIsNeutral(t *testing.T) {
	f := newEngineFixture(t)

	lineups := new(mockLineupProvider)
	lineups.On("FetchLineupReport", mock.Anything, "BOS").
		Return(nil, assert.AnError)
	f.engine.SetLineupProvider(lineups)

	assert.Equal(t, 0.0, f.engine.lineupImpact(context.Background(), "BOS", time.Now()))
}
