package projection

import (
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// League baselines the matchup multiplier is anchored to.
const (
	LeaguePaceBaseline    = 100.0 // points scored per team per game
	LeagueDefenseBaseline = 110.0 // points allowed per game
)

// Matchup multipliers are bounded; a single matchup never moves a projection
// by more than 15% either way.
const (
	matchupMultiplierMin = 0.85
	matchupMultiplierMax = 1.15
)

// MatchupMultiplier converts the two teams' scoring profiles into a single
// multiplier on the expected stat value. A fast pace and a leaky opposing
// defense both push it above 1. Missing team stats leave the projection
// untouched.
func MatchupMultiplier(team, opponent *models.TeamStats) float64 {
	if team == nil || opponent == nil {
		return 1.0
	}
	if team.AvgPointsFor <= 0 || opponent.AvgPointsAgainst <= 0 {
		return 1.0
	}

	pace := (team.AvgPointsFor + opponent.AvgPointsFor) / 2.0 / LeaguePaceBaseline
	defense := opponent.AvgPointsAgainst / LeagueDefenseBaseline

	return stats.Clamp(0.5*pace+0.5*defense, matchupMultiplierMin, matchupMultiplierMax)
}
