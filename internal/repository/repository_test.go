package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/models"
)

func TestNewRepositories_RequiresDatabase(t *testing.T) {
	repos, err := NewRepositories(nil)
	require.Error(t, err)
	assert.Nil(t, repos)
}

func TestMockRecommendationRepository_Settle(t *testing.T) {
	repo := &MockRecommendationRepository{}
	id := uuid.New()
	settledAt := time.Now()

	repo.On("Settle", mock.Anything, id, true, 87.0, settledAt).Return(nil)

	err := repo.Settle(context.Background(), id, true, 87.0, settledAt)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMockRecommendationRepository_GetPending(t *testing.T) {
	repo := &MockRecommendationRepository{}
	pending := []*models.Recommendation{
		{ID: uuid.New(), Status: models.BetStatusPending, Stake: 25},
	}

	repo.On("GetPending", mock.Anything).Return(pending, nil)

	got, err := repo.GetPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 25.0, got[0].Stake)
}

func TestBuildInsertBatch_QueuesEveryRowOnTheUpsert(t *testing.T) {
	logs := []*models.GameLog{
		{PlayerID: "p1", Points: 31, GameDate: time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)},
		{PlayerID: "p2", Points: 18, GameDate: time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)},
	}

	batch := buildInsertBatch(logs)
	require.Equal(t, len(logs), batch.Len())

	// Every queued statement is the shared upsert with the row's own
	// arguments; InsertBatch sends this batch on the transaction, so the
	// whole slate commits or rolls back together.
	for i, q := range batch.QueuedQueries {
		assert.Equal(t, insertGameLogQuery, q.SQL)
		require.Len(t, q.Arguments, 23)
		assert.Equal(t, logs[i].PlayerID, q.Arguments[0])
		assert.Equal(t, logs[i].Points, q.Arguments[7])
	}
}

func TestLatestFromAggregate(t *testing.T) {
	// MAX over zero rows scans as NULL, which is the empty-table case rather
	// than a failure.
	_, err := latestFromAggregate(nil)
	require.ErrorIs(t, err, models.ErrNotFound)

	d := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	got, err := latestFromAggregate(&d)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestMockGameLogRepository_GetByPlayer(t *testing.T) {
	repo := &MockGameLogRepository{}
	logs := []models.GameLog{
		{PlayerID: "p1", Points: 31, GameDate: time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)},
		{PlayerID: "p1", Points: 24, GameDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)},
	}

	repo.On("GetByPlayer", mock.Anything, "p1", 20).Return(logs, nil)

	got, err := repo.GetByPlayer(context.Background(), "p1", 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Most recent first is the repository contract.
	assert.True(t, got[0].GameDate.After(got[1].GameDate))
}
