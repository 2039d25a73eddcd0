package models

// ContextFactors represents situational modifiers for one bet, built from the
// lineup and team-stats providers. The derived adjustment is bounded to ±8%
// regardless of how extreme the individual components are.
type ContextFactors struct {
	RestDays       int     `json:"rest_days"`
	BackToBack     bool    `json:"back_to_back"`
	InjuryImpact   float64 `json:"injury_impact"`   // -1..1, negative hurts
	PaceDiff       float64 `json:"pace_diff"`       // vs league baseline
	ClutchDiff     float64 `json:"clutch_diff"`     // clutch win pct differential
	DefenseDiff    float64 `json:"defense_diff"`    // points-allowed differential
	HomeAdvantage  bool    `json:"home_advantage"`
}

// ConfidenceLevel is the categorical confidence attached to an analysis.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// RiskLevel is the categorical risk attached to an analysis.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// TrendClass grades the quality of a free-text insight backing a bet. The
// weight pulls low-quality trends toward the raw historical rate.
type TrendClass string

const (
	TrendPlayerStatsFloor  TrendClass = "PLAYER_STATS_FLOOR"
	TrendPlayerStatsOver   TrendClass = "PLAYER_STATS_OVER"
	TrendTeamResult        TrendClass = "TEAM_RESULT"
	TrendHeadToHead        TrendClass = "HEAD_TO_HEAD"
	TrendSituational       TrendClass = "SITUATIONAL"
	TrendStreak            TrendClass = "STREAK"
	TrendNarrativeSplit    TrendClass = "NARRATIVE_SPLIT"
)

// ComponentBreakdown itemizes the parts of an adjusted probability so a
// report can show where the number came from.
type ComponentBreakdown struct {
	EdgeComponent    float64 `json:"edge_component"`
	SampleComponent  float64 `json:"sample_component"`
	RecencyComponent float64 `json:"recency_component"`
}

// ContextAwareAnalysis is the output of the context adjustment layer for a
// single bet: a final blended probability plus enough structure for reporting.
type ContextAwareAnalysis struct {
	HistoricalProbability float64 `json:"historical_probability"`
	AdjustedProbability   float64 `json:"adjusted_probability"`
	ImpliedProbability    float64 `json:"implied_probability"`
	FinalProbability      float64 `json:"final_probability"`

	Edge        float64 `json:"edge"`
	EVPer100    float64 `json:"ev_per_100"`
	HasValue    bool    `json:"has_value"`
	SampleSize  int     `json:"sample_size"`
	TrendClass  TrendClass `json:"trend_class"`
	TrendWeight float64    `json:"trend_weight"`

	Breakdown  ComponentBreakdown `json:"breakdown"`
	Confidence ConfidenceLevel    `json:"confidence"`
	Risk       RiskLevel          `json:"risk"`

	Reasons  []string `json:"reasons"`
	Warnings []string `json:"warnings"`
}
