// Package logger provides structured logging for the recommendation engine.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// EngineLogger provides structured logging for recommendation cycles.
type EngineLogger struct {
	*logrus.Entry
}

// NewEngineLogger creates a new engine logger.
func NewEngineLogger(baseLogger *logrus.Logger) *EngineLogger {
	return &EngineLogger{
		Entry: baseLogger.WithField("component", "engine"),
	}
}

// LogCycleStart logs the start of a recommendation cycle.
func (el *EngineLogger) LogCycleStart(cycleID string, gameDate time.Time, candidateMarkets int) {
	el.WithFields(logrus.Fields{
		"cycle_id":          cycleID,
		"game_date":         gameDate.Format("2006-01-02"),
		"candidate_markets": candidateMarkets,
	}).Info("Recommendation cycle started")
}

// LogCycleComplete logs the end of a recommendation cycle.
func (el *EngineLogger) LogCycleComplete(cycleID string, candidates, validated, surfaced int, duration time.Duration) {
	el.WithFields(logrus.Fields{
		"cycle_id":   cycleID,
		"candidates": candidates,
		"validated":  validated,
		"surfaced":   surfaced,
		"duration":   duration.String(),
	}).Info("Recommendation cycle complete")
}

// LogProjectionSkipped logs a player skipped for insufficient data.
func (el *EngineLogger) LogProjectionSkipped(playerID, stat, reason string) {
	el.WithFields(logrus.Fields{
		"player_id": playerID,
		"stat":      stat,
		"reason":    reason,
	}).Debug("Projection skipped")
}

// LogValidationFailure logs a candidate rejected by validation.
func (el *EngineLogger) LogValidationFailure(playerID, marketType, field string, value interface{}, reason string) {
	el.WithFields(logrus.Fields{
		"player_id":   playerID,
		"market_type": marketType,
		"field":       field,
		"value":       value,
		"reason":      reason,
	}).Warn("Candidate failed validation")
}

// LogDataRefresh logs a scheduled data refresh.
func (el *EngineLogger) LogDataRefresh(source string, records int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"source":   source,
		"records":  records,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		el.WithFields(fields).Error("Data refresh failed")
		return
	}
	el.WithFields(fields).Info("Data refresh complete")
}
