package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/models"
)

const gameLogColumns = `player_id, player_name, team, opponent, game_date, home,
	       minutes, points, rebounds, off_reb, def_reb, assists, steals, blocks,
	       turnovers, fouls, fgm, fga, tpm, tpa, ftm, fta, plus_minus, created_at`

// PostgresGameLogRepository implements GameLogRepository for PostgreSQL
type PostgresGameLogRepository struct {
	db *database.DB
}

// NewPostgresGameLogRepository creates a new game log repository
func NewPostgresGameLogRepository(db *database.DB) GameLogRepository {
	return &PostgresGameLogRepository{db: db}
}

const insertGameLogQuery = `
	INSERT INTO game_logs (player_id, player_name, team, opponent, game_date, home,
	                       minutes, points, rebounds, off_reb, def_reb, assists, steals, blocks,
	                       turnovers, fouls, fgm, fga, tpm, tpa, ftm, fta, plus_minus, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	        $15, $16, $17, $18, $19, $20, $21, $22, $23, NOW())
	ON CONFLICT (player_id, game_date) DO UPDATE SET
		minutes = EXCLUDED.minutes, points = EXCLUDED.points, rebounds = EXCLUDED.rebounds,
		off_reb = EXCLUDED.off_reb, def_reb = EXCLUDED.def_reb, assists = EXCLUDED.assists,
		steals = EXCLUDED.steals, blocks = EXCLUDED.blocks, turnovers = EXCLUDED.turnovers,
		fouls = EXCLUDED.fouls, fgm = EXCLUDED.fgm, fga = EXCLUDED.fga, tpm = EXCLUDED.tpm,
		tpa = EXCLUDED.tpa, ftm = EXCLUDED.ftm, fta = EXCLUDED.fta, plus_minus = EXCLUDED.plus_minus
`

func insertGameLogArgs(log *models.GameLog) []interface{} {
	return []interface{}{
		log.PlayerID, log.PlayerName, log.Team, log.Opponent, log.GameDate, log.Home,
		log.Minutes, log.Points, log.Rebounds, log.OffReb, log.DefReb, log.Assists, log.Steals, log.Blocks,
		log.Turnovers, log.Fouls, log.FGM, log.FGA, log.TPM, log.TPA, log.FTM, log.FTA, log.PlusMinus,
	}
}

// Insert stores a single game log. Identity is (player_id, game_date); a
// conflicting insert replaces the prior row so corrected box scores win.
func (r *PostgresGameLogRepository) Insert(ctx context.Context, log *models.GameLog) error {
	_, err := r.db.GetPool().Exec(ctx, insertGameLogQuery, insertGameLogArgs(log)...)
	if err != nil {
		return fmt.Errorf("failed to insert game log: %w", err)
	}

	return nil
}

// buildInsertBatch queues one upsert per log so a whole slate lands in a
// single round trip.
func buildInsertBatch(logs []*models.GameLog) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(insertGameLogQuery, insertGameLogArgs(log)...)
	}
	return batch
}

// InsertBatch stores game logs atomically. Every upsert executes on the
// transaction, so a failed row rolls back the whole batch.
func (r *PostgresGameLogRepository) InsertBatch(ctx context.Context, logs []*models.GameLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, buildInsertBatch(logs))
		for range logs {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert game log batch: %w", err)
			}
		}
		return results.Close()
	})
}

// GetByPlayer retrieves a player's game logs, most recent first
func (r *PostgresGameLogRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameLog, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM game_logs
		WHERE player_id = $1
		ORDER BY game_date DESC
		LIMIT $2
	`, gameLogColumns)

	rows, err := r.db.GetPool().Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game logs: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// GetByPlayerAndDateRange retrieves a player's game logs within a date range, most recent first
func (r *PostgresGameLogRepository) GetByPlayerAndDateRange(ctx context.Context, playerID string, start, end time.Time) ([]models.GameLog, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM game_logs
		WHERE player_id = $1 AND game_date >= $2 AND game_date <= $3
		ORDER BY game_date DESC
	`, gameLogColumns)

	rows, err := r.db.GetPool().Query(ctx, query, playerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query game logs by date range: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// GetByTeamAndDate retrieves every player line for a team on one game date
func (r *PostgresGameLogRepository) GetByTeamAndDate(ctx context.Context, team string, date time.Time) ([]models.GameLog, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM game_logs
		WHERE team = $1 AND game_date = $2
		ORDER BY minutes DESC
	`, gameLogColumns)

	rows, err := r.db.GetPool().Query(ctx, query, team, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query game logs by team: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// GetTeamGameTotals rolls player lines up to per-game team totals, most
// recent first. The margin is the plus/minus sum over five on-court slots.
func (r *PostgresGameLogRepository) GetTeamGameTotals(ctx context.Context, team string, limit int) ([]models.TeamGameTotal, error) {
	query := `
		SELECT team, MIN(opponent) AS opponent, game_date, BOOL_OR(home) AS home,
		       SUM(points) AS points, SUM(plus_minus) / 5.0 AS margin
		FROM game_logs
		WHERE team = $1
		GROUP BY team, game_date
		ORDER BY game_date DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, team, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query team game totals: %w", err)
	}
	defer rows.Close()

	var totals []models.TeamGameTotal
	for rows.Next() {
		var t models.TeamGameTotal
		if err := rows.Scan(&t.Team, &t.Opponent, &t.GameDate, &t.Home, &t.Points, &t.Margin); err != nil {
			return nil, fmt.Errorf("failed to scan team game total: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// GetLatestGameDate returns the date of the player's most recent stored game,
// or models.ErrNotFound when no games are stored.
func (r *PostgresGameLogRepository) GetLatestGameDate(ctx context.Context, playerID string) (time.Time, error) {
	var latest *time.Time
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT MAX(game_date) FROM game_logs WHERE player_id = $1`, playerID,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest game date: %w", err)
	}
	return latestFromAggregate(latest)
}

// latestFromAggregate maps the MAX(game_date) scan result onto the repository
// contract. The aggregate always yields one row; a NULL in it means the
// player has no stored games, not a query failure.
func latestFromAggregate(latest *time.Time) (time.Time, error) {
	if latest == nil {
		return time.Time{}, models.ErrNotFound
	}
	return *latest, nil
}

func scanGameLogs(rows pgx.Rows) ([]models.GameLog, error) {
	var logs []models.GameLog
	for rows.Next() {
		var g models.GameLog
		err := rows.Scan(
			&g.PlayerID, &g.PlayerName, &g.Team, &g.Opponent, &g.GameDate, &g.Home,
			&g.Minutes, &g.Points, &g.Rebounds, &g.OffReb, &g.DefReb, &g.Assists, &g.Steals, &g.Blocks,
			&g.Turnovers, &g.Fouls, &g.FGM, &g.FGA, &g.TPM, &g.TPA, &g.FTM, &g.FTA, &g.PlusMinus, &g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game log: %w", err)
		}
		logs = append(logs, g)
	}

	return logs, rows.Err()
}
