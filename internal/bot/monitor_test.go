package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

type monitorFixture struct {
	monitor  *SettlementMonitor
	recs     *repository.MockRecommendationRepository
	gameLogs *repository.MockGameLogRepository
	rm       *RiskManager
	cb       *CircuitBreaker
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	recs := new(repository.MockRecommendationRepository)
	gameLogs := new(repository.MockGameLogRepository)
	log := logger.NewSilentLogger()
	cfg := testEngineConfig()
	rm := NewRiskManager(cfg, recs, log)
	cb := NewCircuitBreaker(CircuitBreakerConfigFromEngine(cfg), log)

	return &monitorFixture{
		monitor:  NewSettlementMonitor(recs, gameLogs, rm, cb, time.Minute, log),
		recs:     recs,
		gameLogs: gameLogs,
		rm:       rm,
		cb:       cb,
	}
}

func pendingProp(selection string, line float64) *models.Recommendation {
	return &models.Recommendation{
		ID:         uuid.New(),
		GameID:     "g1",
		PlayerID:   "p1",
		Team:       "BOS",
		Opponent:   "NYK",
		MarketType: models.MarketPlayerProp,
		Stat:       models.StatPoints,
		Line:       line,
		Selection:  selection,
		Odds:       1.90,
		Stake:      50.0,
		Status:     models.BetStatusPending,
		CreatedAt:  time.Now().Add(-12 * time.Hour),
	}
}

func TestSettlePending_WinningProp(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("over", 24.5)
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetByPlayerAndDateRange", ctx, "p1", mock.Anything, mock.Anything).
		Return([]models.GameLog{{PlayerID: "p1", Points: 31}}, nil)
	f.recs.On("Settle", ctx, rec.ID, true, 45.0, mock.Anything).Return(nil)

	require.NoError(t, f.monitor.SettlePending(ctx))

	// Winning stake of 50 at 1.90 pays 45 profit into the bankroll.
	assert.Equal(t, 1045.0, f.rm.Bankroll())
	assert.Equal(t, int64(1), f.monitor.GetMetrics().SettlementsPerformed)
	f.recs.AssertExpectations(t)
}

func TestSettlePending_LosingUnder(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("under", 24.5)
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetByPlayerAndDateRange", ctx, "p1", mock.Anything, mock.Anything).
		Return([]models.GameLog{{PlayerID: "p1", Points: 31}}, nil)
	f.recs.On("Settle", ctx, rec.ID, false, -50.0, mock.Anything).Return(nil)

	require.NoError(t, f.monitor.SettlePending(ctx))

	assert.Equal(t, 950.0, f.rm.Bankroll())
	f.recs.AssertExpectations(t)
}

func TestSettlePending_NoResultStaysPending(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("over", 24.5)
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetByPlayerAndDateRange", ctx, "p1", mock.Anything, mock.Anything).
		Return([]models.GameLog{}, nil)

	require.NoError(t, f.monitor.SettlePending(ctx))

	assert.Equal(t, 1000.0, f.rm.Bankroll())
	assert.Equal(t, int64(1), f.monitor.GetMetrics().PendingRemaining)
	f.recs.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlePending_TeamSides(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("home", 0)
	rec.MarketType = models.MarketTeamSides
	rec.PlayerID = ""
	rec.Stat = ""

	gameDate := time.Now()
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetTeamGameTotals", ctx, "BOS", 10).Return([]models.TeamGameTotal{
		{Team: "BOS", GameDate: gameDate, Points: 112, Margin: 4},
	}, nil)
	f.recs.On("Settle", ctx, rec.ID, true, 45.0, mock.Anything).Return(nil)

	require.NoError(t, f.monitor.SettlePending(ctx))
	f.recs.AssertExpectations(t)
}

func TestSettlePending_TotalsUnder(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("under", 220.5)
	rec.MarketType = models.MarketTotals
	rec.PlayerID = ""
	rec.Stat = ""

	gameDate := time.Now()
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetTeamGameTotals", ctx, "BOS", 10).Return([]models.TeamGameTotal{
		// 112 for, 108 against: total 220 stays under 220.5.
		{Team: "BOS", GameDate: gameDate, Points: 112, Margin: 4},
	}, nil)
	f.recs.On("Settle", ctx, rec.ID, true, 45.0, mock.Anything).Return(nil)

	require.NoError(t, f.monitor.SettlePending(ctx))
	f.recs.AssertExpectations(t)
}

func TestSettlePending_LossFeedsCircuitBreaker(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	rec := pendingProp("over", 24.5)
	f.recs.On("GetPending", ctx).Return([]*models.Recommendation{rec}, nil)
	f.gameLogs.On("GetByPlayerAndDateRange", ctx, "p1", mock.Anything, mock.Anything).
		Return([]models.GameLog{{PlayerID: "p1", Points: 20}}, nil)
	f.recs.On("Settle", ctx, rec.ID, false, -50.0, mock.Anything).Return(nil)

	require.NoError(t, f.monitor.SettlePending(ctx))

	// One loss does not open the breaker but must be tracked.
	assert.Equal(t, CircuitClosed, f.cb.GetState())
	assert.Equal(t, 1, f.cb.consecutiveLosses)
}

func TestSettlePending_GetPendingError(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	f.recs.On("GetPending", ctx).Return(nil, assert.AnError)

	err := f.monitor.SettlePending(ctx)
	assert.Error(t, err)
	assert.Equal(t, int64(1), f.monitor.GetMetrics().RunErrors)
}
