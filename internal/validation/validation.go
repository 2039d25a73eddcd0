// Package validation enforces the numeric invariants a recommendation must
// satisfy before it may be surfaced: probability, confidence and EV ranges,
// EV/odds consistency, market-specific tier thresholds and probability
// floors. It produces no data of its own.
package validation

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
)

// EVTolerance is the maximum allowed drift between a stored EV and the value
// recomputed from probability and odds.
const EVTolerance = 0.001

// EV is bounded to a sane range; anything outside it is a data bug upstream,
// not a great bet.
const (
	MinEV = -10.0
	MaxEV = 10.0
)

// tierThresholds maps market type to the minimum confidence per tier.
// Totals demand the most confidence at C tier because totals lines carry the
// most bookmaker information; player props the least.
var tierThresholds = map[models.MarketType]map[models.Tier]float64{
	models.MarketPlayerProp: {models.TierA: 65, models.TierB: 50, models.TierC: 35},
	models.MarketTeamSides:  {models.TierA: 65, models.TierB: 50, models.TierC: 40},
	models.MarketTotals:     {models.TierA: 65, models.TierB: 50, models.TierC: 45},
}

// probabilityFloors maps market type to the minimum acceptable probability.
// The player-prop floor sits below 0.50 on purpose: prop variance makes a
// 47% model probability at plus odds a legitimate bet.
var probabilityFloors = map[models.MarketType]float64{
	models.MarketPlayerProp: 0.47,
	models.MarketTeamSides:  0.50,
	models.MarketTotals:     0.52,
}

// Error represents a single invariant violation.
type Error struct {
	Field  string
	Value  float64
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed on %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Validator checks bet evaluations against the invariant set. In strict mode
// violations are returned as typed errors; otherwise they are logged and the
// evaluation is reported unfit via a boolean.
type Validator struct {
	strict bool
	logger *logrus.Logger
}

// NewValidator creates a validator. Strict mode is for assembly-time checks
// where a violation means a programming error; non-strict mode is for
// filtering candidate bets.
func NewValidator(strict bool, logger *logrus.Logger) *Validator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Validator{strict: strict, logger: logger}
}

// TierThreshold returns the confidence threshold for the given market and
// tier. Unknown market types fail loudly; silently defaulting to another
// market's table is exactly the bug this lookup exists to prevent.
func TierThreshold(market models.MarketType, tier models.Tier) (float64, error) {
	table, ok := tierThresholds[market]
	if !ok {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownMarketType, market)
	}
	threshold, ok := table[tier]
	if !ok {
		return 0, fmt.Errorf("unknown tier %q for market %q", tier, market)
	}
	return threshold, nil
}

// ProbabilityFloor returns the minimum probability for the given market.
func ProbabilityFloor(market models.MarketType) (float64, error) {
	floor, ok := probabilityFloors[market]
	if !ok {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownMarketType, market)
	}
	return floor, nil
}

// AssertProbability checks probability is in [0, 1].
func AssertProbability(p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return &Error{Field: "probability", Value: p, Reason: "must be in [0, 1]"}
	}
	return nil
}

// AssertConfidence checks confidence is in [0, 100].
func AssertConfidence(c float64) error {
	if c < 0 || c > 100 || math.IsNaN(c) {
		return &Error{Field: "confidence", Value: c, Reason: "must be in [0, 100]"}
	}
	return nil
}

// AssertEV checks EV is in the sane range.
func AssertEV(ev float64) error {
	if ev < MinEV || ev > MaxEV || math.IsNaN(ev) {
		return &Error{Field: "ev", Value: ev, Reason: fmt.Sprintf("must be in [%v, %v]", MinEV, MaxEV)}
	}
	return nil
}

// AssertEVConsistency checks that ev matches probability*odds - 1 within
// EVTolerance.
func AssertEVConsistency(ev, probability, odds float64) error {
	expected := probability*odds - 1.0
	if math.Abs(ev-expected) > EVTolerance {
		return &Error{
			Field:  "ev",
			Value:  ev,
			Reason: fmt.Sprintf("inconsistent with probability*odds-1 = %.4f", expected),
		}
	}
	return nil
}

// AssertTier checks that confidence meets the tier threshold for the market.
// Confidence exactly at the threshold passes. A promoted A-tier bet was
// originally graded B and boosted by the large-edge rule, so it validates
// against the B threshold.
func AssertTier(market models.MarketType, tier models.Tier, confidence float64, promoted bool) error {
	effectiveTier := tier
	if promoted && tier == models.TierA {
		effectiveTier = models.TierB
	}
	threshold, err := TierThreshold(market, effectiveTier)
	if err != nil {
		return err
	}
	if confidence < threshold {
		return &Error{
			Field:  "confidence",
			Value:  confidence,
			Reason: fmt.Sprintf("below %s-tier threshold %.0f for market %s", tier, threshold, market),
		}
	}
	return nil
}

// Validate runs the full invariant set over a bet evaluation. In strict mode
// the first violation is returned as an error; in non-strict mode violations
// are logged at warn level and the evaluation is reported unfit.
func (v *Validator) Validate(eval *models.BetEvaluation) (bool, error) {
	if eval == nil {
		return false, &Error{Field: "evaluation", Reason: "nil evaluation"}
	}
	err := v.validate(eval)
	if err == nil {
		return true, nil
	}
	if v.strict {
		return false, err
	}
	v.logger.WithFields(logrus.Fields{
		"market_type": eval.MarketType,
		"tier":        eval.Tier,
		"probability": eval.Probability,
		"confidence":  eval.Confidence,
		"ev":          eval.EV,
	}).WithError(err).Warn("Bet evaluation rejected")
	return false, nil
}

func (v *Validator) validate(eval *models.BetEvaluation) error {
	if eval == nil {
		return &Error{Field: "evaluation", Reason: "nil evaluation"}
	}
	if eval.MarketType == "" {
		return models.ErrMissingMarketType
	}
	if err := AssertProbability(eval.Probability); err != nil {
		return err
	}
	if err := AssertConfidence(eval.Confidence); err != nil {
		return err
	}
	if err := AssertEV(eval.EV); err != nil {
		return err
	}
	if err := AssertEVConsistency(eval.EV, eval.Probability, eval.Odds); err != nil {
		return err
	}
	if err := AssertTier(eval.MarketType, eval.Tier, eval.Confidence, eval.Promoted); err != nil {
		return err
	}
	floor, err := ProbabilityFloor(eval.MarketType)
	if err != nil {
		return err
	}
	if eval.Probability < floor {
		return &Error{
			Field:  "probability",
			Value:  eval.Probability,
			Reason: fmt.Sprintf("below floor %.2f for market %s", floor, eval.MarketType),
		}
	}
	return nil
}
