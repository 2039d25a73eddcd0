package models

import (
	"time"
)

// GameLog represents one player's box-score line for a single game.
// Records are normalized at the datasource boundary; everything downstream
// works with this struct and never with raw provider field names.
// Identity is (PlayerID, GameDate) and a record is never mutated after
// ingestion.
type GameLog struct {
	PlayerID   string    `db:"player_id" json:"player_id" validate:"required"`
	PlayerName string    `db:"player_name" json:"player_name"`
	Team       string    `db:"team" json:"team" validate:"required"`
	Opponent   string    `db:"opponent" json:"opponent"`
	GameDate   time.Time `db:"game_date" json:"game_date" validate:"required"`
	Home       bool      `db:"home" json:"home"`

	Minutes  float64 `db:"minutes" json:"minutes" validate:"gte=0,lte=60"`
	Points   float64 `db:"points" json:"points" validate:"gte=0"`
	Rebounds float64 `db:"rebounds" json:"rebounds" validate:"gte=0"`
	OffReb   float64 `db:"off_reb" json:"off_reb" validate:"gte=0"`
	DefReb   float64 `db:"def_reb" json:"def_reb" validate:"gte=0"`
	Assists  float64 `db:"assists" json:"assists" validate:"gte=0"`
	Steals   float64 `db:"steals" json:"steals" validate:"gte=0"`
	Blocks   float64 `db:"blocks" json:"blocks" validate:"gte=0"`
	Turnovers float64 `db:"turnovers" json:"turnovers" validate:"gte=0"`
	Fouls    float64 `db:"fouls" json:"fouls" validate:"gte=0"`

	FGM float64 `db:"fgm" json:"fgm" validate:"gte=0"`
	FGA float64 `db:"fga" json:"fga" validate:"gte=0"`
	TPM float64 `db:"tpm" json:"tpm" validate:"gte=0"`
	TPA float64 `db:"tpa" json:"tpa" validate:"gte=0"`
	FTM float64 `db:"ftm" json:"ftm" validate:"gte=0"`
	FTA float64 `db:"fta" json:"fta" validate:"gte=0"`

	PlusMinus float64 `db:"plus_minus" json:"plus_minus"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StatType identifies which box-score stat a projection or prop line refers to.
type StatType string

const (
	StatPoints   StatType = "points"
	StatRebounds StatType = "rebounds"
	StatAssists  StatType = "assists"
	StatThrees   StatType = "threes"
	StatSteals   StatType = "steals"
	StatBlocks   StatType = "blocks"
	StatMinutes  StatType = "minutes"
	StatPRA      StatType = "pra"
)

// Stat returns the value of the given stat type from the game log.
func (g *GameLog) Stat(stat StatType) float64 {
	switch stat {
	case StatPoints:
		return g.Points
	case StatRebounds:
		return g.Rebounds
	case StatAssists:
		return g.Assists
	case StatThrees:
		return g.TPM
	case StatSteals:
		return g.Steals
	case StatBlocks:
		return g.Blocks
	case StatMinutes:
		return g.Minutes
	case StatPRA:
		return g.Points + g.Rebounds + g.Assists
	default:
		return 0
	}
}

// Per36 returns the stat value scaled to a 36-minute pace. Returns 0 for
// games with no recorded minutes.
func (g *GameLog) Per36(stat StatType) float64 {
	if g.Minutes <= 0 {
		return 0
	}
	return g.Stat(stat) / g.Minutes * 36.0
}

// TeamTotals represents aggregate team box-score totals for a single game,
// used as the denominator in usage and rebound-rate calculations.
type TeamTotals struct {
	Minutes   float64 `json:"minutes"`
	FGA       float64 `json:"fga"`
	FTA       float64 `json:"fta"`
	Turnovers float64 `json:"turnovers"`
	FGM       float64 `json:"fgm"`
	Rebounds  float64 `json:"rebounds"`
	OffReb    float64 `json:"off_reb"`
	DefReb    float64 `json:"def_reb"`
}

// TeamGameTotal represents one team's aggregated box score for a single game,
// rolled up from player game logs. Margin is the on-court plus/minus sum
// divided by five, which approximates the final scoring margin.
type TeamGameTotal struct {
	Team     string    `db:"team" json:"team"`
	Opponent string    `db:"opponent" json:"opponent"`
	GameDate time.Time `db:"game_date" json:"game_date"`
	Home     bool      `db:"home" json:"home"`
	Points   float64   `db:"points" json:"points"`
	Margin   float64   `db:"margin" json:"margin"`
}

// Won reports whether the team's approximate margin was positive.
func (t *TeamGameTotal) Won() bool {
	return t.Margin > 0
}

// OpponentPoints estimates the opponent's score from the margin.
func (t *TeamGameTotal) OpponentPoints() float64 {
	return t.Points - t.Margin
}

// TotalPoints estimates the combined score of the game.
func (t *TeamGameTotal) TotalPoints() float64 {
	return t.Points + t.OpponentPoints()
}

// TeamStats represents season-level team averages supplied by the team
// statistics provider. A nil TeamStats means the provider had no data.
type TeamStats struct {
	Team             string  `db:"team" json:"team"`
	GamesPlayed      int     `db:"games_played" json:"games_played"`
	AvgPointsFor     float64 `db:"avg_points_for" json:"avg_points_for"`
	AvgPointsAgainst float64 `db:"avg_points_against" json:"avg_points_against"`
	TotalPoints      float64 `db:"total_points" json:"total_points"`
	WinPct           float64 `db:"win_pct" json:"win_pct"`
	FavoriteWinPct   float64 `db:"favorite_win_pct" json:"favorite_win_pct"`
	UnderdogWinPct   float64 `db:"underdog_win_pct" json:"underdog_win_pct"`
	ClutchWinPct     float64 `db:"clutch_win_pct" json:"clutch_win_pct"`
	ReliabilityPct   float64 `db:"reliability_pct" json:"reliability_pct"`
}
