package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketType represents the betting market a recommendation belongs to. Each
// market carries its own tier thresholds and probability floor, so the market
// type is a required input for validation and may never be defaulted.
type MarketType string

const (
	MarketPlayerProp MarketType = "player_prop"
	MarketTeamSides  MarketType = "team_sides"
	MarketTotals     MarketType = "totals"
)

// Tier grades a recommendation. A-tier bets are the strongest signals.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// BetStatus represents the lifecycle state of a recommendation.
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"
	BetStatusSettled   BetStatus = "settled"
	BetStatusCancelled BetStatus = "cancelled"
)

// BetEvaluation represents the numeric evaluation of one candidate bet prior
// to ranking. Invariant: EV == Probability*Odds - 1 within 0.001.
type BetEvaluation struct {
	Probability float64    `json:"probability" validate:"gte=0,lte=1"`
	Odds        float64    `json:"odds" validate:"gt=1"`
	EV          float64    `json:"ev" validate:"gte=-10,lte=10"`
	Confidence  float64    `json:"confidence" validate:"gte=0,lte=100"`
	Tier        Tier       `json:"tier" validate:"required,oneof=A B C"`
	MarketType  MarketType `json:"market_type" validate:"required,oneof=player_prop team_sides totals"`
	// Promoted marks an originally-B bet boosted to A by the large-edge
	// rule; such bets validate against the B confidence threshold.
	Promoted bool `json:"promoted"`
}

// Recommendation represents a surfaced bet recommendation.
type Recommendation struct {
	ID         uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	GameID     string     `db:"game_id" json:"game_id"`
	PlayerID   string     `db:"player_id" json:"player_id"`
	PlayerName string     `db:"player_name" json:"player_name"`
	Team       string     `db:"team" json:"team"`
	Opponent   string     `db:"opponent" json:"opponent"`
	MarketType MarketType `db:"market_type" json:"market_type" validate:"required,oneof=player_prop team_sides totals"`
	Stat       StatType   `db:"stat" json:"stat"`
	Line       float64    `db:"line" json:"line"`
	Selection  string     `db:"selection" json:"selection"` // e.g. "over", "home"

	Probability float64 `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	Odds        float64 `db:"odds" json:"odds" validate:"gt=1"`
	EV          float64 `db:"ev" json:"ev"`
	Confidence  float64 `db:"confidence" json:"confidence" validate:"gte=0,lte=100"`
	Tier        Tier    `db:"tier" json:"tier"`
	Stake       float64 `db:"stake" json:"stake" validate:"gte=0"`
	SampleSize  int     `db:"sample_size" json:"sample_size"`
	TrendScore  float64 `db:"trend_score" json:"trend_score"`

	// MatchupAligned is set when the model projection and the situational
	// read point the same way; the ranking layer rewards it.
	MatchupAligned bool `db:"matchup_aligned" json:"matchup_aligned"`
	// ModelBacked is set when a full projection pipeline run backs the bet,
	// as opposed to a trend-only signal.
	ModelBacked bool `db:"model_backed" json:"model_backed"`

	Status     BetStatus  `db:"status" json:"status"`
	Outcome    *bool      `db:"outcome" json:"outcome"`
	ProfitLoss *float64   `db:"profit_loss" json:"profit_loss"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	SettledAt  *time.Time `db:"settled_at" json:"settled_at"`
}

// IsSettled checks whether the recommendation has been settled.
func (r *Recommendation) IsSettled() bool {
	return r.Status == BetStatusSettled && r.SettledAt != nil
}

// GetROI returns the return on investment percentage for a settled bet.
func (r *Recommendation) GetROI() float64 {
	if r.Stake == 0 || r.ProfitLoss == nil {
		return 0
	}
	return (*r.ProfitLoss / r.Stake) * 100
}
