package ranking

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
)

// prop builds an admissible player-prop candidate with a positive edge.
func prop(playerID, gameID, team string, confidence float64) *models.Recommendation {
	return &models.Recommendation{
		PlayerID:    playerID,
		PlayerName:  "Player " + playerID,
		GameID:      gameID,
		Team:        team,
		MarketType:  models.MarketPlayerProp,
		Probability: 0.65,
		Odds:        1.60,
		EV:          0.65*1.60 - 1,
		Confidence:  confidence,
		SampleSize:  20,
		TrendScore:  5,
		ModelBacked: true,
	}
}

func teamBet(gameID string, market models.MarketType, confidence float64) *models.Recommendation {
	rec := prop("", gameID, "BOS", confidence)
	rec.PlayerName = ""
	rec.MarketType = market
	return rec
}

func TestAdmitGates(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	ok := func(rec *models.Recommendation) bool {
		_, admitted := r.admit(rec)
		return admitted
	}

	assert.True(t, ok(prop("p1", "g1", "BOS", 60)))

	lowProb := prop("p1", "g1", "BOS", 60)
	lowProb.Probability = 0.59
	assert.False(t, ok(lowProb))

	// 0.62 at 1.50 sits below the implied 0.667.
	negEdge := prop("p1", "g1", "BOS", 60)
	negEdge.Probability = 0.62
	negEdge.Odds = 1.50
	assert.False(t, ok(negEdge))

	thin := prop("p1", "g1", "BOS", 60)
	thin.SampleSize = 4
	thin.ModelBacked = false
	assert.False(t, ok(thin))

	// Model backing excuses a thin sample.
	thin.ModelBacked = true
	assert.True(t, ok(thin))
}

func TestWeightedConfidence(t *testing.T) {
	rec := prop("p1", "g1", "BOS", 50)
	rec.EV = 0.10
	rec.SampleSize = 20
	rec.MatchupAligned = true
	rec.TrendScore = 5

	want := 50.0 + 0.5*10.0 + math.Log(20) + 2.0
	assert.InDelta(t, want, WeightedConfidence(rec), 1e-9)

	// Trend-only signals take a heavy penalty, hot streak trends a bonus.
	rec.TrendScore = 0.5
	assert.InDelta(t, want-20, WeightedConfidence(rec), 1e-9)
	rec.TrendScore = 12
	assert.InDelta(t, want+5, WeightedConfidence(rec), 1e-9)
}

func TestRank_CapsAtMaxResults(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	candidates := make([]*models.Recommendation, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, prop(
			fmt.Sprintf("p%d", i),
			fmt.Sprintf("g%d", i),
			"BOS",
			70-float64(i),
		))
	}

	got := r.Rank(candidates)
	require.Len(t, got, MaxResults)

	// Strongest first.
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
	assert.Equal(t, "p0", got[0].PlayerID)
}

func TestRank_OnePropPerPlayer(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	got := r.Rank([]*models.Recommendation{
		prop("p1", "g1", "BOS", 70),
		prop("p1", "g2", "BOS", 68),
		prop("p2", "g3", "NYK", 60),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].PlayerID)
	assert.Equal(t, "g1", got[0].GameID)
	assert.Equal(t, "p2", got[1].PlayerID)
}

func TestRank_CorrelatedGameCap(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	// Totals and sides in the same game move together: at most two of the
	// three team bets survive.
	got := r.Rank([]*models.Recommendation{
		teamBet("g1", models.MarketTotals, 70),
		teamBet("g1", models.MarketTeamSides, 68),
		teamBet("g1", models.MarketTeamSides, 66),
		prop("p9", "g9", "NYK", 60),
	})

	perGame := map[string]int{}
	for _, rec := range got {
		perGame[rec.GameID]++
	}
	assert.Equal(t, 2, perGame["g1"])
	assert.Equal(t, 1, perGame["g9"])
}

func TestRank_SameTeamPropsCapAtTwo(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	got := r.Rank([]*models.Recommendation{
		prop("p1", "g1", "BOS", 70),
		prop("p2", "g1", "BOS", 68),
		prop("p3", "g1", "BOS", 66),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].PlayerID)
	assert.Equal(t, "p2", got[1].PlayerID)
}

func TestRank_UncorrelatedBetsFillGameCap(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	// A total plus one prop from each side never pairwise correlate, so the
	// per-game cap of three holds them all.
	got := r.Rank([]*models.Recommendation{
		teamBet("g1", models.MarketTotals, 70),
		prop("p1", "g1", "BOS", 68),
		prop("p2", "g1", "NYK", 66),
	})
	assert.Len(t, got, 3)
}

func TestRank_RelaxesThresholdForShortShortlists(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())

	// Weighted confidence sits in the low 30s; only the looser thresholds
	// admit it, but it still gets surfaced.
	weak := prop("p1", "g1", "BOS", 28)
	got := r.Rank([]*models.Recommendation{weak})
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].PlayerID)
}

func TestRank_EmptyAndNilInput(t *testing.T) {
	r := NewRanker(logger.NewSilentLogger())
	assert.Empty(t, r.Rank(nil))
	assert.Empty(t, r.Rank([]*models.Recommendation{nil}))
}
