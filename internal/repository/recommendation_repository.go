package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/models"
)

const recommendationColumns = `id, game_id, player_id, player_name, team, opponent,
	       market_type, stat, line, selection, probability, odds, ev, confidence, tier,
	       stake, sample_size, trend_score, matchup_aligned, model_backed,
	       status, outcome, profit_loss, created_at, settled_at`

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// Create inserts a new recommendation
func (r *PostgresRecommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	query := `
		INSERT INTO recommendations (id, game_id, player_id, player_name, team, opponent,
		                             market_type, stat, line, selection, probability, odds, ev,
		                             confidence, tier, stake, sample_size, trend_score,
		                             matchup_aligned, model_backed, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, NOW())
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		rec.ID, rec.GameID, rec.PlayerID, rec.PlayerName, rec.Team, rec.Opponent,
		rec.MarketType, rec.Stat, rec.Line, rec.Selection, rec.Probability, rec.Odds, rec.EV,
		rec.Confidence, rec.Tier, rec.Stake, rec.SampleSize, rec.TrendScore,
		rec.MatchupAligned, rec.ModelBacked, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}

// GetByID retrieves a recommendation by ID
func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	query := fmt.Sprintf(`SELECT %s FROM recommendations WHERE id = $1`, recommendationColumns)

	rec := &models.Recommendation{}
	err := scanRecommendation(r.db.GetPool().QueryRow(ctx, query, id), rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

// GetByGameID retrieves all recommendations for a specific game
func (r *PostgresRecommendationRepository) GetByGameID(ctx context.Context, gameID string) ([]*models.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE game_id = $1
		ORDER BY created_at DESC
	`, recommendationColumns)

	rows, err := r.db.GetPool().Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations by game: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// Update updates an existing recommendation
func (r *PostgresRecommendationRepository) Update(ctx context.Context, rec *models.Recommendation) error {
	query := `
		UPDATE recommendations SET
			probability = $2, odds = $3, ev = $4, confidence = $5, tier = $6,
			stake = $7, status = $8, outcome = $9, profit_loss = $10, settled_at = $11
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		rec.ID, rec.Probability, rec.Odds, rec.EV, rec.Confidence, rec.Tier,
		rec.Stake, rec.Status, rec.Outcome, rec.ProfitLoss, rec.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// GetPending retrieves all pending recommendations
func (r *PostgresRecommendationRepository) GetPending(ctx context.Context) ([]*models.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`, recommendationColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// GetSettled retrieves all settled recommendations within a date range
func (r *PostgresRecommendationRepository) GetSettled(ctx context.Context, start, end time.Time) ([]*models.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE status = 'settled' AND settled_at >= $1 AND settled_at <= $2
		ORDER BY settled_at DESC
	`, recommendationColumns)

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// Settle marks a recommendation as settled with its outcome and profit or loss
func (r *PostgresRecommendationRepository) Settle(ctx context.Context, id uuid.UUID, outcome bool, profitLoss float64, settledAt time.Time) error {
	query := `
		UPDATE recommendations SET
			status = 'settled', outcome = $2, profit_loss = $3, settled_at = $4
		WHERE id = $1 AND status = 'pending'
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query, id, outcome, profitLoss, settledAt)
	if err != nil {
		return fmt.Errorf("failed to settle recommendation: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanRecommendation(row pgx.Row, rec *models.Recommendation) error {
	return row.Scan(
		&rec.ID, &rec.GameID, &rec.PlayerID, &rec.PlayerName, &rec.Team, &rec.Opponent,
		&rec.MarketType, &rec.Stat, &rec.Line, &rec.Selection, &rec.Probability, &rec.Odds,
		&rec.EV, &rec.Confidence, &rec.Tier, &rec.Stake, &rec.SampleSize, &rec.TrendScore,
		&rec.MatchupAligned, &rec.ModelBacked, &rec.Status, &rec.Outcome, &rec.ProfitLoss,
		&rec.CreatedAt, &rec.SettledAt,
	)
}

func scanRecommendations(rows pgx.Rows) ([]*models.Recommendation, error) {
	var recs []*models.Recommendation
	for rows.Next() {
		rec := &models.Recommendation{}
		if err := scanRecommendation(rows, rec); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
