package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
)

// DataNormalizer converts provider payloads into canonical internal records.
// Team names arrive in whatever form the provider uses (full name, city,
// tricode); everything downstream keys on the three-letter tricode.
type DataNormalizer struct {
	teamCodeMap map[string]string
	logger      *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger *logrus.Logger) *DataNormalizer {
	return &DataNormalizer{
		teamCodeMap: buildTeamCodeMap(),
		logger:      logger,
	}
}

// NormalizeGameLog canonicalizes a game log in place: tricode teams, UTC
// day-truncated game date, trimmed player name, and rebounds derived from
// the split when the provider omits the total.
func (n *DataNormalizer) NormalizeGameLog(log *models.GameLog) error {
	if log == nil {
		return fmt.Errorf("game log is nil")
	}

	log.Team = n.NormalizeTeam(log.Team)
	log.Opponent = n.NormalizeTeam(log.Opponent)
	log.PlayerName = sanitizeName(log.PlayerName)
	log.GameDate = normalizeGameDate(log.GameDate)

	if log.Rebounds == 0 && (log.OffReb > 0 || log.DefReb > 0) {
		log.Rebounds = log.OffReb + log.DefReb
	}

	return nil
}

// NormalizeTeamStats canonicalizes a season team stats record in place.
func (n *DataNormalizer) NormalizeTeamStats(stats *models.TeamStats) error {
	if stats == nil {
		return fmt.Errorf("team stats is nil")
	}

	stats.Team = n.NormalizeTeam(stats.Team)
	return nil
}

// NormalizeTeam converts a provider team name to its canonical tricode.
// Unknown names pass through upper-cased so they at least collide with
// themselves across providers.
func (n *DataNormalizer) NormalizeTeam(team string) string {
	if team == "" {
		return ""
	}

	upper := strings.ToUpper(strings.TrimSpace(team))
	if code, ok := n.teamCodeMap[upper]; ok {
		return code
	}

	if len(upper) != 3 {
		n.logger.WithField("team", team).Debug("Unrecognized team name, passing through")
	}
	return upper
}

// normalizeGameDate truncates to the UTC day boundary so (player, date)
// identity holds across providers reporting different tip-off timestamps.
func normalizeGameDate(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// sanitizeName trims whitespace and collapses internal runs of spaces.
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// buildTeamCodeMap returns the mapping of team name variations to tricodes.
func buildTeamCodeMap() map[string]string {
	return map[string]string{
		"ATLANTA HAWKS":          "ATL",
		"ATLANTA":                "ATL",
		"BOSTON CELTICS":         "BOS",
		"BOSTON":                 "BOS",
		"BROOKLYN NETS":          "BKN",
		"BROOKLYN":               "BKN",
		"CHARLOTTE HORNETS":      "CHA",
		"CHARLOTTE":              "CHA",
		"CHICAGO BULLS":          "CHI",
		"CHICAGO":                "CHI",
		"CLEVELAND CAVALIERS":    "CLE",
		"CLEVELAND":              "CLE",
		"DALLAS MAVERICKS":       "DAL",
		"DALLAS":                 "DAL",
		"DENVER NUGGETS":         "DEN",
		"DENVER":                 "DEN",
		"DETROIT PISTONS":        "DET",
		"DETROIT":                "DET",
		"GOLDEN STATE WARRIORS":  "GSW",
		"GOLDEN STATE":           "GSW",
		"HOUSTON ROCKETS":        "HOU",
		"HOUSTON":                "HOU",
		"INDIANA PACERS":         "IND",
		"INDIANA":                "IND",
		"LA CLIPPERS":            "LAC",
		"LOS ANGELES CLIPPERS":   "LAC",
		"LOS ANGELES LAKERS":     "LAL",
		"LA LAKERS":              "LAL",
		"MEMPHIS GRIZZLIES":      "MEM",
		"MEMPHIS":                "MEM",
		"MIAMI HEAT":             "MIA",
		"MIAMI":                  "MIA",
		"MILWAUKEE BUCKS":        "MIL",
		"MILWAUKEE":              "MIL",
		"MINNESOTA TIMBERWOLVES": "MIN",
		"MINNESOTA":              "MIN",
		"NEW ORLEANS PELICANS":   "NOP",
		"NEW ORLEANS":            "NOP",
		"NEW YORK KNICKS":        "NYK",
		"NEW YORK":               "NYK",
		"OKLAHOMA CITY THUNDER":  "OKC",
		"OKLAHOMA CITY":          "OKC",
		"ORLANDO MAGIC":          "ORL",
		"ORLANDO":                "ORL",
		"PHILADELPHIA 76ERS":     "PHI",
		"PHILADELPHIA":           "PHI",
		"PHOENIX SUNS":           "PHX",
		"PHOENIX":                "PHX",
		"PORTLAND TRAIL BLAZERS": "POR",
		"PORTLAND":               "POR",
		"SACRAMENTO KINGS":       "SAC",
		"SACRAMENTO":             "SAC",
		"SAN ANTONIO SPURS":      "SAS",
		"SAN ANTONIO":            "SAS",
		"TORONTO RAPTORS":        "TOR",
		"TORONTO":                "TOR",
		"UTAH JAZZ":              "UTA",
		"UTAH":                   "UTA",
		"WASHINGTON WIZARDS":     "WAS",
		"WASHINGTON":             "WAS",
	}
}
