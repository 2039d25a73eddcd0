package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		Bankroll:             1000.0,
		KellyFraction:        0.25,
		MaxStakePerBet:       100.0,
		MaxDailyLoss:         200.0,
		MaxExposure:          500.0,
		Markets:              []string{"player_prop", "team_sides", "totals"},
		MaxRecommendations:   5,
		MaxConsecutiveLosses: 5,
		MaxDrawdownPercent:   0.20,
	}
}

func TestCalculatePositionSize(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())

	tests := []struct {
		name        string
		odds        float64
		probability float64
		expectZero  bool
	}{
		{
			name:        "strong edge capped at max stake",
			odds:        3.0,
			probability: 0.8,
		},
		{
			name:        "negative kelly means no bet",
			odds:        2.0,
			probability: 0.3,
			expectZero:  true,
		},
		{
			name:        "thin edge below minimum stake",
			odds:        2.0,
			probability: 0.502,
			expectZero:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stake, err := rm.CalculatePositionSize(tt.probability, tt.odds)
			require.NoError(t, err)

			if tt.expectZero {
				assert.Equal(t, 0.0, stake)
			} else {
				assert.Greater(t, stake, 0.0)
				assert.LessOrEqual(t, stake, rm.config.MaxStakePerBet)
			}
		})
	}
}

func TestCalculatePositionSize_BadOdds(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())

	_, err := rm.CalculatePositionSize(0.6, 1.0)
	assert.Error(t, err)
}

func TestCheckRiskLimits(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())
	rm.dailyLossResetTime = time.Now().Add(1 * time.Hour)

	ctx := context.Background()

	tests := []struct {
		name            string
		currentExposure float64
		dailyLoss       float64
		stake           float64
		expectError     bool
	}{
		{
			name:        "exceeds max stake",
			stake:       150.0,
			expectError: true,
		},
		{
			name:            "exceeds max exposure",
			currentExposure: 480.0,
			stake:           30.0,
			expectError:     true,
		},
		{
			name:        "daily loss limit reached",
			dailyLoss:   250.0,
			stake:       10.0,
			expectError: true,
		},
		{
			name:            "within limits",
			currentExposure: 100.0,
			dailyLoss:       50.0,
			stake:           25.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm.currentExposure = tt.currentExposure
			rm.dailyLoss = tt.dailyLoss

			err := rm.CheckRiskLimits(ctx, tt.stake)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateExposure(t *testing.T) {
	mockRepo := new(repository.MockRecommendationRepository)
	rm := NewRiskManager(testEngineConfig(), mockRepo, logger.NewSilentLogger())

	ctx := context.Background()

	pending := []*models.Recommendation{
		{ID: uuid.New(), Stake: 50.0, Status: models.BetStatusPending},
		{ID: uuid.New(), Stake: 75.0, Status: models.BetStatusPending},
		{ID: uuid.New(), Stake: 100.0, Status: models.BetStatusPending},
	}

	mockRepo.On("GetPending", ctx).Return(pending, nil)

	err := rm.UpdateExposure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 225.0, rm.currentExposure)

	mockRepo.AssertExpectations(t)
}

func TestUpdateExposureError(t *testing.T) {
	mockRepo := new(repository.MockRecommendationRepository)
	rm := NewRiskManager(testEngineConfig(), mockRepo, logger.NewSilentLogger())

	ctx := context.Background()
	mockRepo.On("GetPending", ctx).Return(nil, assert.AnError)

	err := rm.UpdateExposure(ctx)
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateDailyLoss(t *testing.T) {
	mockRepo := new(repository.MockRecommendationRepository)
	rm := NewRiskManager(testEngineConfig(), mockRepo, logger.NewSilentLogger())

	ctx := context.Background()

	pl1 := -50.0
	pl2 := -75.0
	pl3 := 30.0

	settled := []*models.Recommendation{
		{ID: uuid.New(), ProfitLoss: &pl1, Status: models.BetStatusSettled},
		{ID: uuid.New(), ProfitLoss: &pl2, Status: models.BetStatusSettled},
		{ID: uuid.New(), ProfitLoss: &pl3, Status: models.BetStatusSettled},
	}

	mockRepo.On("GetSettled", ctx, mock.Anything, mock.Anything).Return(settled, nil)

	err := rm.UpdateDailyLoss(ctx)
	require.NoError(t, err)

	// Total P&L = -50 - 75 + 30 = -95; daily loss is its absolute value.
	assert.Equal(t, 95.0, rm.dailyLoss)

	mockRepo.AssertExpectations(t)
}

func TestCheckRiskLimitsResetsDailyLoss(t *testing.T) {
	mockRepo := new(repository.MockRecommendationRepository)
	rm := NewRiskManager(testEngineConfig(), mockRepo, logger.NewSilentLogger())

	ctx := context.Background()
	rm.dailyLoss = 100.0
	rm.dailyLossResetTime = time.Now().Add(-1 * time.Hour)

	mockRepo.On("GetSettled", ctx, mock.Anything, mock.Anything).Return([]*models.Recommendation{}, nil)

	err := rm.CheckRiskLimits(ctx, 10.0)
	assert.NoError(t, err)
	assert.True(t, rm.dailyLossResetTime.After(time.Now()))
	mockRepo.AssertExpectations(t)
}

func TestApplySettlement(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())

	bankroll := rm.ApplySettlement(80.0)
	assert.Equal(t, 1080.0, bankroll)

	bankroll = rm.ApplySettlement(-30.0)
	assert.Equal(t, 1050.0, bankroll)
	assert.Equal(t, 30.0, rm.dailyLoss)
}

func TestIsWithinLimits(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())

	assert.True(t, rm.IsWithinLimits())

	rm.currentExposure = 500.0
	assert.False(t, rm.IsWithinLimits())

	rm.currentExposure = 0
	rm.dailyLoss = 200.0
	assert.False(t, rm.IsWithinLimits())

	rm.dailyLoss = 0
	assert.True(t, rm.IsWithinLimits())
}

func TestGetRiskMetrics(t *testing.T) {
	rm := NewRiskManager(testEngineConfig(), new(repository.MockRecommendationRepository), logger.NewSilentLogger())

	rm.currentExposure = 250.0
	rm.dailyLoss = 50.0

	m := rm.GetRiskMetrics()

	assert.Equal(t, 1000.0, m.Bankroll)
	assert.Equal(t, 250.0, m.CurrentExposure)
	assert.Equal(t, 50.0, m.DailyLoss)
	assert.Equal(t, 500.0, m.MaxExposure)
	assert.Equal(t, 200.0, m.MaxDailyLoss)
	assert.Equal(t, 250.0, m.RemainingCapacity)
}
