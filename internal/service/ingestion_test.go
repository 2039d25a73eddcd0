package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

type mockGameLogProvider struct {
	mock.Mock
}

func (m *mockGameLogProvider) FetchPlayerGameLogs(ctx context.Context, playerID string, limit int) ([]models.GameLog, error) {
	args := m.Called(ctx, playerID, limit)
	if logs, ok := args.Get(0).([]models.GameLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGameLogProvider) FetchGameLogsByDate(ctx context.Context, date time.Time) ([]models.GameLog, error) {
	args := m.Called(ctx, date)
	if logs, ok := args.Get(0).([]models.GameLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGameLogProvider) Name() string    { return "stats_api" }
func (m *mockGameLogProvider) IsEnabled() bool { return true }

type mockTeamStatsProvider struct {
	mock.Mock
}

func (m *mockTeamStatsProvider) FetchTeamStats(ctx context.Context) ([]*models.TeamStats, error) {
	args := m.Called(ctx)
	if stats, ok := args.Get(0).([]*models.TeamStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTeamStatsProvider) Name() string    { return "stats_api" }
func (m *mockTeamStatsProvider) IsEnabled() bool { return true }

type ingestionFixture struct {
	svc       *IngestionService
	gameLogs  *mockGameLogProvider
	teamStats *mockTeamStatsProvider
	logRepo   *repository.MockGameLogRepository
	statRepo  *repository.MockTeamStatsRepository
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()

	gameLogs := new(mockGameLogProvider)
	teamStats := new(mockTeamStatsProvider)
	logRepo := new(repository.MockGameLogRepository)
	statRepo := new(repository.MockTeamStatsRepository)

	providers := &datasource.Providers{GameLogs: gameLogs, TeamStats: teamStats}
	repos := &repository.Repositories{
		GameLog:   logRepo,
		TeamStats: statRepo,
	}

	return &ingestionFixture{
		svc:       NewIngestionService(providers, repos, nil, logger.NewSilentLogger()),
		gameLogs:  gameLogs,
		teamStats: teamStats,
		logRepo:   logRepo,
		statRepo:  statRepo,
	}
}

func validLog(playerID string, gameDate time.Time) models.GameLog {
	return models.GameLog{
		PlayerID:   playerID,
		PlayerName: "Test Player",
		Team:       "Boston Celtics",
		Opponent:   "NYK",
		GameDate:   gameDate,
		Minutes:    34,
		Points:     27,
		Rebounds:   6,
		Assists:    5,
		FGM:        10,
		FGA:        19,
		TPM:        3,
		TPA:        8,
		FTM:        4,
		FTA:        5,
	}
}

func TestSyncGameLogs_StoresValidRecords(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	f.gameLogs.On("FetchGameLogsByDate", ctx, date).Return([]models.GameLog{
		validLog("p1", date),
		validLog("p2", date),
	}, nil)

	var stored []*models.GameLog
	f.logRepo.On("InsertBatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).([]*models.GameLog)
	}).Return(nil)

	report, err := f.svc.SyncGameLogs(ctx, date)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Stored)
	assert.Equal(t, 0, report.ValidationErrors)

	require.Len(t, stored, 2)
	assert.Equal(t, "BOS", stored[0].Team)
	f.logRepo.AssertExpectations(t)
}

func TestSyncGameLogs_DropsInvalidRecord(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	bad := validLog("p2", date)
	bad.FGM = 25
	bad.FGA = 10

	f.gameLogs.On("FetchGameLogsByDate", ctx, date).Return([]models.GameLog{
		validLog("p1", date),
		bad,
	}, nil)
	f.logRepo.On("InsertBatch", ctx, mock.MatchedBy(func(logs []*models.GameLog) bool {
		return len(logs) == 1 && logs[0].PlayerID == "p1"
	})).Return(nil)

	report, err := f.svc.SyncGameLogs(ctx, date)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stored)
	assert.Equal(t, 1, report.ValidationErrors)
	f.logRepo.AssertExpectations(t)
}

func TestSyncGameLogs_FetchFailureIsFatal(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	f.gameLogs.On("FetchGameLogsByDate", ctx, date).Return(nil, assert.AnError)

	report, err := f.svc.SyncGameLogs(ctx, date)
	assert.Error(t, err)
	assert.Equal(t, 1, report.Errors)
	f.logRepo.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestBackfillPlayer_SkipsStoredGames(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()

	latest := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	logs := []models.GameLog{
		validLog("p1", latest.Add(48*time.Hour)),
		validLog("p1", latest),
		validLog("p1", latest.Add(-48*time.Hour)),
	}

	f.gameLogs.On("FetchPlayerGameLogs", ctx, "p1", 30).Return(logs, nil)
	f.logRepo.On("GetLatestGameDate", ctx, "p1").Return(latest, nil)
	f.logRepo.On("InsertBatch", ctx, mock.MatchedBy(func(batch []*models.GameLog) bool {
		return len(batch) == 1 && batch[0].GameDate.After(latest)
	})).Return(nil)

	report, err := f.svc.BackfillPlayer(ctx, "p1", 30)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 1, report.Stored)
	assert.Equal(t, 2, report.Skipped)
	f.logRepo.AssertExpectations(t)
}

func TestRefreshTeamStats_UpsertsEachTeam(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()

	f.teamStats.On("FetchTeamStats", ctx).Return([]*models.TeamStats{
		{Team: "Boston Celtics", GamesPlayed: 40, AvgPointsFor: 118.2, AvgPointsAgainst: 109.5, WinPct: 0.75},
		{Team: "NYK", GamesPlayed: 41, AvgPointsFor: 112.8, AvgPointsAgainst: 110.1, WinPct: 0.56},
	}, nil)
	f.statRepo.On("Upsert", ctx, mock.MatchedBy(func(ts *models.TeamStats) bool {
		return ts.Team == "BOS" || ts.Team == "NYK"
	})).Return(nil).Times(2)

	report, err := f.svc.RefreshTeamStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stored)
	f.statRepo.AssertExpectations(t)
}

func TestRefreshTeamStats_DropsOutOfRange(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()

	f.teamStats.On("FetchTeamStats", ctx).Return([]*models.TeamStats{
		{Team: "BOS", GamesPlayed: 40, AvgPointsFor: 250.0, AvgPointsAgainst: 109.5},
	}, nil)

	report, err := f.svc.RefreshTeamStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stored)
	assert.Equal(t, 1, report.ValidationErrors)
	f.statRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
