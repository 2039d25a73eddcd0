package service

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
)

// DataValidator checks provider records before they reach the database.
// Struct tags cover required fields and ranges; the cross-field checks here
// catch the internally inconsistent box scores providers occasionally emit.
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidateGameLog returns the list of problems with a game log. An empty
// slice means the record is storable.
func (v *DataValidator) ValidateGameLog(log *models.GameLog) []string {
	var problems []string

	if err := v.validate.Struct(log); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if log.FGM > log.FGA {
		problems = append(problems, fmt.Sprintf("fgm %.0f exceeds fga %.0f", log.FGM, log.FGA))
	}
	if log.TPM > log.TPA {
		problems = append(problems, fmt.Sprintf("tpm %.0f exceeds tpa %.0f", log.TPM, log.TPA))
	}
	if log.FTM > log.FTA {
		problems = append(problems, fmt.Sprintf("ftm %.0f exceeds fta %.0f", log.FTM, log.FTA))
	}
	if log.TPM > log.FGM {
		problems = append(problems, fmt.Sprintf("tpm %.0f exceeds fgm %.0f", log.TPM, log.FGM))
	}

	// Points must reconcile with the shooting line when splits are present.
	if log.FGA > 0 || log.FTA > 0 {
		derived := 2*log.FGM + log.TPM + log.FTM
		if math.Abs(derived-log.Points) > 0.5 {
			problems = append(problems, fmt.Sprintf("points %.0f does not match shooting line (%.0f)", log.Points, derived))
		}
	}

	if log.Minutes == 0 && log.Points > 0 {
		problems = append(problems, "points recorded with zero minutes")
	}

	now := time.Now().UTC()
	if log.GameDate.After(now.Add(24 * time.Hour)) {
		problems = append(problems, "game date is in the future")
	}
	if !log.GameDate.IsZero() && log.GameDate.Before(now.Add(-3*365*24*time.Hour)) {
		problems = append(problems, "game date is older than three seasons")
	}

	return problems
}

// ValidateTeamStats returns the list of problems with a season stats record.
func (v *DataValidator) ValidateTeamStats(stats *models.TeamStats) []string {
	var problems []string

	if stats.Team == "" {
		problems = append(problems, "team is required")
	}
	if stats.GamesPlayed < 0 || stats.GamesPlayed > 110 {
		problems = append(problems, fmt.Sprintf("games_played out of range, got %d", stats.GamesPlayed))
	}
	if stats.GamesPlayed > 0 {
		if stats.AvgPointsFor < 70 || stats.AvgPointsFor > 160 {
			problems = append(problems, fmt.Sprintf("avg_points_for out of range, got %.1f", stats.AvgPointsFor))
		}
		if stats.AvgPointsAgainst < 70 || stats.AvgPointsAgainst > 160 {
			problems = append(problems, fmt.Sprintf("avg_points_against out of range, got %.1f", stats.AvgPointsAgainst))
		}
	}
	for name, pct := range map[string]float64{
		"win_pct":         stats.WinPct,
		"clutch_win_pct":  stats.ClutchWinPct,
		"reliability_pct": stats.ReliabilityPct,
	} {
		if pct < 0 || pct > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in [0,1], got %.3f", name, pct))
		}
	}

	return problems
}
