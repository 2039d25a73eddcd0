package situation

import (
	"strings"

	"github.com/expert-sys/positive-edge/internal/models"
)

// Trend weights grade how much predictive signal a free-text insight carries.
// A floor-style player stat trend ("20+ points in each of his last 10") is
// close to a direct sample of the prop; a narrative split ("averages 30 on
// Tuesdays") carries none and is pulled entirely back to the historical rate.
var trendWeights = map[models.TrendClass]float64{
	models.TrendPlayerStatsFloor: 1.0,
	models.TrendPlayerStatsOver:  0.9,
	models.TrendHeadToHead:       0.7,
	models.TrendTeamResult:       0.6,
	models.TrendSituational:      0.4,
	models.TrendStreak:           0.2,
	models.TrendNarrativeSplit:   0.0,
}

// ClassifyTrend assigns a quality class to a free-text insight via keyword
// matching. Narrative splits are checked first so that "averages X at home
// in March" does not get credit as a situational trend.
func ClassifyTrend(insight string) models.TrendClass {
	text := strings.ToLower(insight)

	narrative := []string{"in games where", "on days", "in the month", "during", "when wearing", "narrative", "day of the week"}
	for _, kw := range narrative {
		if strings.Contains(text, kw) {
			return models.TrendNarrativeSplit
		}
	}

	floor := []string{"at least", "or more", "in each of", "every game", "floor"}
	for _, kw := range floor {
		if strings.Contains(text, kw) {
			return models.TrendPlayerStatsFloor
		}
	}

	over := []string{"over", "+ points", "+ rebounds", "+ assists", "has cleared", "has hit"}
	for _, kw := range over {
		if strings.Contains(text, kw) {
			return models.TrendPlayerStatsOver
		}
	}

	h2h := []string{"vs ", "against ", "head-to-head", "matchup with"}
	for _, kw := range h2h {
		if strings.Contains(text, kw) {
			return models.TrendHeadToHead
		}
	}

	team := []string{"have won", "have covered", "to win", "straight up", "ats"}
	for _, kw := range team {
		if strings.Contains(text, kw) {
			return models.TrendTeamResult
		}
	}

	situational := []string{"at home", "on the road", "off a loss", "rest", "back-to-back", "as favorite", "as underdog"}
	for _, kw := range situational {
		if strings.Contains(text, kw) {
			return models.TrendSituational
		}
	}

	streak := []string{"streak", "in a row", "straight games", "last "}
	for _, kw := range streak {
		if strings.Contains(text, kw) {
			return models.TrendStreak
		}
	}

	return models.TrendNarrativeSplit
}

// TrendWeight returns the blend weight for a trend class.
func TrendWeight(class models.TrendClass) float64 {
	if w, ok := trendWeights[class]; ok {
		return w
	}
	return 0
}
