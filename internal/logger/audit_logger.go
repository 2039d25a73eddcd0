// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecommendation logs a surfaced recommendation.
func (al *AuditLogger) LogRecommendation(recID, gameID, playerID, marketType, tier string, probability, confidence, odds, evPer100 float64, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"recommendation_id": recID,
		"game_id":           gameID,
		"player_id":         playerID,
		"market_type":       marketType,
		"tier":              tier,
		"probability":       probability,
		"confidence":        confidence,
		"odds":              odds,
		"ev_per_100":        evPer100,
		"timestamp":         timestamp.Unix(),
	}).Info("Recommendation recorded")
}

// LogSettlement logs a recommendation settlement.
func (al *AuditLogger) LogSettlement(recID string, outcome string, profitLoss float64, settledAt time.Time) {
	al.WithFields(logrus.Fields{
		"recommendation_id": recID,
		"outcome":           outcome,
		"profit_loss":       profitLoss,
		"settled_at":        settledAt.Unix(),
	}).Info("Recommendation settled")
}

// LogTierPromotion logs an A-tier promotion applied during validation.
func (al *AuditLogger) LogTierPromotion(recID string, fromTier, toTier string, confidence float64) {
	al.WithFields(logrus.Fields{
		"recommendation_id": recID,
		"from_tier":         fromTier,
		"to_tier":           toTier,
		"confidence":        confidence,
	}).Info("Tier promotion recorded")
}

// LogCircuitBreakerEvent logs circuit breaker events.
func (al *AuditLogger) LogCircuitBreakerEvent(eventType, reason string, metricsSnapshot map[string]interface{}, actionTaken string) {
	al.WithFields(logrus.Fields{
		"event_type":       eventType,
		"reason":           reason,
		"metrics_snapshot": metricsSnapshot,
		"action_taken":     actionTaken,
	}).Warn("Circuit breaker event recorded")
}

// LogEmergencyShutdown logs emergency shutdown events with system state.
func (al *AuditLogger) LogEmergencyShutdown(reason string, systemState map[string]interface{}) {
	al.WithFields(logrus.Fields{
		"reason":       reason,
		"system_state": systemState,
	}).Fatal("Emergency shutdown initiated")
}
