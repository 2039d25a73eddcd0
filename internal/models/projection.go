package models

import "time"

// RollingStats represents a windowed aggregate over one stat. Recomputed per
// projection call and never persisted.
type RollingStats struct {
	Stat         StatType `json:"stat"`
	Window       int      `json:"window"`
	SampleSize   int      `json:"sample_size"`
	Mean         float64  `json:"mean"`
	Variance     float64  `json:"variance"`
	StdDev       float64  `json:"std_dev"`
	WeightedMean float64  `json:"weighted_mean"` // exponential-decay weighted
}

// BenchingRisk categorizes how unstable a player's minutes are.
type BenchingRisk string

const (
	BenchingRiskLow      BenchingRisk = "LOW"
	BenchingRiskModerate BenchingRisk = "MODERATE"
	BenchingRiskHigh     BenchingRisk = "HIGH"
)

// MinutesProjection represents projected playing time and its stability.
type MinutesProjection struct {
	RecentAvg        float64      `json:"recent_avg"`     // last 5 games
	HistoricalAvg    float64      `json:"historical_avg"` // last 20 games
	Projected        float64      `json:"projected"`
	StdDev           float64      `json:"std_dev"`
	BenchingRisk     BenchingRisk `json:"benching_risk"`
	VolatilityPenalty float64     `json:"volatility_penalty"` // multiplicative, in [0,1]
}

// RoleChange classifies a detected shift in a player's role.
type RoleChange string

const (
	RoleChangeNone           RoleChange = "NONE"
	RoleChangeIncrease       RoleChange = "INCREASE"
	RoleChangeDecrease       RoleChange = "DECREASE"
	RoleChangeTemporarySpike RoleChange = "TEMPORARY_SPIKE"
)

// PlayerRole is inferred from usage, assist and rebound patterns and selects
// the per-stat probability adjustment table.
type PlayerRole string

const (
	RolePrimaryScorer PlayerRole = "PRIMARY_SCORER"
	RolePlaymaker     PlayerRole = "PLAYMAKER"
	RoleBigMan        PlayerRole = "BIG_MAN"
	RoleThreeAndD     PlayerRole = "THREE_AND_D"
	RoleRotation      PlayerRole = "ROTATION"
)

// Archetype buckets players by scoring profile; each archetype carries a hard
// ceiling on any single-prop probability.
type Archetype string

const (
	ArchetypeStar        Archetype = "STAR"
	ArchetypeHighUsage   Archetype = "HIGH_USAGE"
	ArchetypeSpecialist  Archetype = "SPECIALIST"
	ArchetypeRolePlayer  Archetype = "ROLE_PLAYER"
	ArchetypeLowMinutes  Archetype = "LOW_MINUTES"
)

// DistributionFamily names the distribution used for the over-line probability.
type DistributionFamily string

const (
	DistNormal            DistributionFamily = "normal"
	DistPoisson           DistributionFamily = "poisson"
	DistZeroInflatedPoisson DistributionFamily = "zip"
	DistTruncatedNormal   DistributionFamily = "truncated_normal"
)

// StatProjection is the output of the projection pipeline for one player,
// stat and line. CalibratedProbability is the single source of truth for all
// downstream expected-value math; it is produced from RawProbability by
// applying the volatility penalty, then the role penalty, then the archetype
// cap, then clamping to [0.01, 0.99]. That order is load-bearing: changing it
// changes the final number.
type StatProjection struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Stat       StatType  `json:"stat"`
	Line       float64   `json:"line"`
	GameDate   time.Time `json:"game_date"`

	Expected float64 `json:"expected"`
	Variance float64 `json:"variance"`

	RawProbability        float64 `json:"raw_probability"`
	CalibratedProbability float64 `json:"calibrated_probability"`
	Confidence            float64 `json:"confidence"` // 0-100

	Minutes      MinutesProjection  `json:"minutes"`
	RoleChange   RoleChange         `json:"role_change"`
	Role         PlayerRole         `json:"role"`
	Archetype    Archetype          `json:"archetype"`
	Distribution DistributionFamily `json:"distribution"`

	MatchupMultiplier float64 `json:"matchup_multiplier"`
	SampleSize        int     `json:"sample_size"`
}
