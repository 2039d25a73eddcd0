package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/models"
)

// PostgresTeamStatsRepository implements TeamStatsRepository for PostgreSQL
type PostgresTeamStatsRepository struct {
	db *database.DB
}

// NewPostgresTeamStatsRepository creates a new team stats repository
func NewPostgresTeamStatsRepository(db *database.DB) TeamStatsRepository {
	return &PostgresTeamStatsRepository{db: db}
}

// Upsert stores season team averages, replacing any prior row for the team
func (r *PostgresTeamStatsRepository) Upsert(ctx context.Context, stats *models.TeamStats) error {
	query := `
		INSERT INTO team_stats (team, games_played, avg_points_for, avg_points_against,
		                        total_points, win_pct, favorite_win_pct, underdog_win_pct,
		                        clutch_win_pct, reliability_pct, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (team) DO UPDATE SET
			games_played = EXCLUDED.games_played,
			avg_points_for = EXCLUDED.avg_points_for,
			avg_points_against = EXCLUDED.avg_points_against,
			total_points = EXCLUDED.total_points,
			win_pct = EXCLUDED.win_pct,
			favorite_win_pct = EXCLUDED.favorite_win_pct,
			underdog_win_pct = EXCLUDED.underdog_win_pct,
			clutch_win_pct = EXCLUDED.clutch_win_pct,
			reliability_pct = EXCLUDED.reliability_pct,
			updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		stats.Team, stats.GamesPlayed, stats.AvgPointsFor, stats.AvgPointsAgainst,
		stats.TotalPoints, stats.WinPct, stats.FavoriteWinPct, stats.UnderdogWinPct,
		stats.ClutchWinPct, stats.ReliabilityPct,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team stats: %w", err)
	}

	return nil
}

// GetByTeam retrieves season stats for one team
func (r *PostgresTeamStatsRepository) GetByTeam(ctx context.Context, team string) (*models.TeamStats, error) {
	query := `
		SELECT team, games_played, avg_points_for, avg_points_against, total_points,
		       win_pct, favorite_win_pct, underdog_win_pct, clutch_win_pct, reliability_pct
		FROM team_stats WHERE team = $1
	`

	stats := &models.TeamStats{}
	err := r.db.GetPool().QueryRow(ctx, query, team).Scan(
		&stats.Team, &stats.GamesPlayed, &stats.AvgPointsFor, &stats.AvgPointsAgainst,
		&stats.TotalPoints, &stats.WinPct, &stats.FavoriteWinPct, &stats.UnderdogWinPct,
		&stats.ClutchWinPct, &stats.ReliabilityPct,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team stats: %w", err)
	}

	return stats, nil
}

// GetAll retrieves season stats for every team
func (r *PostgresTeamStatsRepository) GetAll(ctx context.Context) ([]*models.TeamStats, error) {
	query := `
		SELECT team, games_played, avg_points_for, avg_points_against, total_points,
		       win_pct, favorite_win_pct, underdog_win_pct, clutch_win_pct, reliability_pct
		FROM team_stats
		ORDER BY team
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query team stats: %w", err)
	}
	defer rows.Close()

	var all []*models.TeamStats
	for rows.Next() {
		stats := &models.TeamStats{}
		err := rows.Scan(
			&stats.Team, &stats.GamesPlayed, &stats.AvgPointsFor, &stats.AvgPointsAgainst,
			&stats.TotalPoints, &stats.WinPct, &stats.FavoriteWinPct, &stats.UnderdogWinPct,
			&stats.ClutchWinPct, &stats.ReliabilityPct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team stats: %w", err)
		}
		all = append(all, stats)
	}

	return all, rows.Err()
}
