// Package ranking merges heterogeneous bet candidates, team markets and
// player props alike, into one ranked shortlist. It layers its own weighted
// confidence transform on top of each candidate's component confidence,
// filters hard on probability and edge, and enforces correlation caps so the
// shortlist is not five flavors of the same game.
package ranking

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// Hard gates applied before any scoring.
const (
	MinProbability = 0.60
	MinSampleSize  = 5
)

// MaxResults is the size of the surfaced shortlist.
const MaxResults = 5

// Correlation caps per game and per player.
const (
	maxPerPlayer          = 1
	maxPerGameCorrelated  = 2
	maxPerGame            = 3
	playerDemotionPenalty = 10.0
	gameDemotionPenalty   = 5.0
)

// Confidence thresholds walked from strictest to loosest until the shortlist
// fills.
var confidenceThresholds = []float64{50, 45, 40, 35, 30, 25, 20}

// RankedBet pairs a recommendation with its ranking-layer weighted
// confidence.
type RankedBet struct {
	Rec      *models.Recommendation
	Weighted float64
}

// Ranker ranks and filters candidate recommendations.
type Ranker struct {
	logger *logrus.Logger
}

// NewRanker creates a ranker.
func NewRanker(logger *logrus.Logger) *Ranker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Ranker{logger: logger}
}

// Rank returns at most MaxResults recommendations, strongest first.
func (r *Ranker) Rank(candidates []*models.Recommendation) []*models.Recommendation {
	ranked := make([]RankedBet, 0, len(candidates))
	for _, rec := range candidates {
		if rec == nil {
			continue
		}
		if reason, ok := r.admit(rec); !ok {
			r.logger.WithFields(logrus.Fields{
				"player": rec.PlayerName,
				"market": rec.MarketType,
				"reason": reason,
			}).Debug("Candidate rejected")
			continue
		}
		ranked = append(ranked, RankedBet{Rec: rec, Weighted: WeightedConfidence(rec)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weighted > ranked[j].Weighted
	})

	for _, threshold := range confidenceThresholds {
		selected := r.selectWithCaps(ranked, threshold)
		if len(selected) >= MaxResults {
			return selected[:MaxResults]
		}
		if threshold == confidenceThresholds[len(confidenceThresholds)-1] {
			return selected
		}
	}
	return nil
}

// admit applies the hard gates; the string names the failed gate for logs.
func (r *Ranker) admit(rec *models.Recommendation) (string, bool) {
	if rec.Probability < MinProbability {
		return "probability below floor", false
	}
	edge := rec.Probability - stats.ImpliedProbability(rec.Odds)
	if edge < 0 {
		return "negative edge", false
	}
	if rec.SampleSize < MinSampleSize && !rec.ModelBacked {
		return "thin sample without model backing", false
	}
	return "", true
}

// WeightedConfidence is the ranking layer's confidence transform: base
// confidence plus EV, sample-size and matchup bonuses, minus a penalty for
// trend-only signals.
func WeightedConfidence(rec *models.Recommendation) float64 {
	weighted := rec.Confidence
	weighted += 0.5 * rec.EV * 100.0
	if rec.SampleSize > 0 {
		weighted += math.Log(float64(rec.SampleSize))
	}
	if rec.MatchupAligned {
		weighted += 2.0
	}
	switch {
	case rec.TrendScore < 1:
		weighted -= 20.0
	case rec.TrendScore < 3:
		weighted -= 10.0
	case rec.TrendScore >= 10:
		weighted += 5.0
	}
	return weighted
}

// selectWithCaps walks the ranked list at one confidence threshold and
// enforces correlation caps. A bet that trips a cap is demoted once with a
// confidence penalty and reconsidered at its new position; a second trip
// excludes it.
func (r *Ranker) selectWithCaps(ranked []RankedBet, threshold float64) []*models.Recommendation {
	pool := make([]RankedBet, 0, len(ranked))
	for _, rb := range ranked {
		if rb.Weighted >= threshold {
			pool = append(pool, rb)
		}
	}

	selected := make([]*models.Recommendation, 0, MaxResults)
	playerCount := make(map[string]int)
	gameCount := make(map[string]int)
	demoted := make(map[*models.Recommendation]bool)

	for len(pool) > 0 && len(selected) < MaxResults {
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Weighted > pool[j].Weighted
		})
		rb := pool[0]
		pool = pool[1:]
		rec := rb.Rec

		if rec.PlayerID != "" && playerCount[rec.PlayerID] >= maxPerPlayer {
			// One prop per player, full stop.
			continue
		}

		cap := maxPerGame
		if correlatedWithSelected(rec, selected) {
			cap = maxPerGameCorrelated
		}
		if rec.GameID != "" && gameCount[rec.GameID] >= cap {
			if demoted[rec] {
				continue
			}
			demoted[rec] = true
			penalty := gameDemotionPenalty
			if cap == maxPerGameCorrelated {
				penalty = playerDemotionPenalty
			}
			rb.Weighted -= penalty
			if rb.Weighted >= threshold {
				pool = append(pool, rb)
			}
			continue
		}

		selected = append(selected, rec)
		if rec.PlayerID != "" {
			playerCount[rec.PlayerID]++
		}
		if rec.GameID != "" {
			gameCount[rec.GameID]++
		}
	}

	return selected
}

// correlatedWithSelected reports whether the candidate shares a game and a
// correlated market with an already-selected bet. Totals and sides in the
// same game move together; player props correlate with each other only
// moderately.
func correlatedWithSelected(rec *models.Recommendation, selected []*models.Recommendation) bool {
	for _, s := range selected {
		if s.GameID != rec.GameID || rec.GameID == "" {
			continue
		}
		if s.MarketType != models.MarketPlayerProp && rec.MarketType != models.MarketPlayerProp {
			return true
		}
		if s.MarketType == models.MarketPlayerProp && rec.MarketType == models.MarketPlayerProp && s.Team == rec.Team {
			return true
		}
	}
	return false
}
