// Package repository defines data access interfaces and their PostgreSQL
// implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/expert-sys/positive-edge/internal/models"
)

// GameLogRepository defines the interface for game log data access
type GameLogRepository interface {
	Insert(ctx context.Context, log *models.GameLog) error
	InsertBatch(ctx context.Context, logs []*models.GameLog) error
	// GetByPlayer returns the player's logs most recent first.
	GetByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameLog, error)
	GetByPlayerAndDateRange(ctx context.Context, playerID string, start, end time.Time) ([]models.GameLog, error)
	GetByTeamAndDate(ctx context.Context, team string, date time.Time) ([]models.GameLog, error)
	// GetTeamGameTotals returns per-game team aggregates, most recent first.
	GetTeamGameTotals(ctx context.Context, team string, limit int) ([]models.TeamGameTotal, error)
	GetLatestGameDate(ctx context.Context, playerID string) (time.Time, error)
}

// TeamStatsRepository defines the interface for season team stats access
type TeamStatsRepository interface {
	Upsert(ctx context.Context, stats *models.TeamStats) error
	GetByTeam(ctx context.Context, team string) (*models.TeamStats, error)
	GetAll(ctx context.Context) ([]*models.TeamStats, error)
}

// RecommendationRepository defines the interface for recommendation data access
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	GetByGameID(ctx context.Context, gameID string) ([]*models.Recommendation, error)
	Update(ctx context.Context, rec *models.Recommendation) error
	GetPending(ctx context.Context) ([]*models.Recommendation, error)
	GetSettled(ctx context.Context, start, end time.Time) ([]*models.Recommendation, error)
	Settle(ctx context.Context, id uuid.UUID, outcome bool, profitLoss float64, settledAt time.Time) error
}
