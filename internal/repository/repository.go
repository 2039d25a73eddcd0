package repository

import (
	"fmt"

	"github.com/expert-sys/positive-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	GameLog        GameLogRepository
	TeamStats      TeamStatsRepository
	Recommendation RecommendationRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		GameLog:        NewPostgresGameLogRepository(db),
		TeamStats:      NewPostgresTeamStatsRepository(db),
		Recommendation: NewPostgresRecommendationRepository(db),
	}, nil
}
