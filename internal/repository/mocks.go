package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/expert-sys/positive-edge/internal/models"
)

// MockRecommendationRepository is a testify mock of RecommendationRepository.
type MockRecommendationRepository struct {
	mock.Mock
}

func (m *MockRecommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*models.Recommendation); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecommendationRepository) GetByGameID(ctx context.Context, gameID string) ([]*models.Recommendation, error) {
	args := m.Called(ctx, gameID)
	if recs, ok := args.Get(0).([]*models.Recommendation); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecommendationRepository) Update(ctx context.Context, rec *models.Recommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecommendationRepository) GetPending(ctx context.Context) ([]*models.Recommendation, error) {
	args := m.Called(ctx)
	if recs, ok := args.Get(0).([]*models.Recommendation); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecommendationRepository) GetSettled(ctx context.Context, start, end time.Time) ([]*models.Recommendation, error) {
	args := m.Called(ctx, start, end)
	if recs, ok := args.Get(0).([]*models.Recommendation); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecommendationRepository) Settle(ctx context.Context, id uuid.UUID, outcome bool, profitLoss float64, settledAt time.Time) error {
	args := m.Called(ctx, id, outcome, profitLoss, settledAt)
	return args.Error(0)
}

// MockGameLogRepository is a testify mock of GameLogRepository.
type MockGameLogRepository struct {
	mock.Mock
}

func (m *MockGameLogRepository) Insert(ctx context.Context, log *models.GameLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockGameLogRepository) InsertBatch(ctx context.Context, logs []*models.GameLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *MockGameLogRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameLog, error) {
	args := m.Called(ctx, playerID, limit)
	if logs, ok := args.Get(0).([]models.GameLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGameLogRepository) GetByPlayerAndDateRange(ctx context.Context, playerID string, start, end time.Time) ([]models.GameLog, error) {
	args := m.Called(ctx, playerID, start, end)
	if logs, ok := args.Get(0).([]models.GameLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGameLogRepository) GetByTeamAndDate(ctx context.Context, team string, date time.Time) ([]models.GameLog, error) {
	args := m.Called(ctx, team, date)
	if logs, ok := args.Get(0).([]models.GameLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGameLogRepository) GetTeamGameTotals(ctx context.Context, team string, limit int) ([]models.TeamGameTotal, error) {
	args := m.Called(ctx, team, limit)
	if totals, ok := args.Get(0).([]models.TeamGameTotal); ok {
		return totals, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGameLogRepository) GetLatestGameDate(ctx context.Context, playerID string) (time.Time, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockTeamStatsRepository is a testify mock of TeamStatsRepository.
type MockTeamStatsRepository struct {
	mock.Mock
}

func (m *MockTeamStatsRepository) Upsert(ctx context.Context, stats *models.TeamStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockTeamStatsRepository) GetByTeam(ctx context.Context, team string) (*models.TeamStats, error) {
	args := m.Called(ctx, team)
	if stats, ok := args.Get(0).(*models.TeamStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamStatsRepository) GetAll(ctx context.Context) ([]*models.TeamStats, error) {
	args := m.Called(ctx)
	if stats, ok := args.Get(0).([]*models.TeamStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}
