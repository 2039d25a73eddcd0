package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, buf
}

func TestNewLogger_ValidLevel(t *testing.T) {
	l := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	l := NewLogger("extremely-verbose")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestAuditLogger_LogRecommendation(t *testing.T) {
	base, buf := newCapturedLogger(logrus.InfoLevel)
	al := NewAuditLogger(base)

	al.LogRecommendation("rec-1", "game-9", "player-23", "player_prop", "A",
		0.68, 62.0, 1.87, 27.16, time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC))

	out := buf.String()
	assert.Contains(t, out, `"component":"audit"`)
	assert.Contains(t, out, `"recommendation_id":"rec-1"`)
	assert.Contains(t, out, `"market_type":"player_prop"`)
	assert.Contains(t, out, `"tier":"A"`)
}

func TestAuditLogger_LogSettlement(t *testing.T) {
	base, buf := newCapturedLogger(logrus.InfoLevel)
	al := NewAuditLogger(base)

	al.LogSettlement("rec-1", "won", 87.0, time.Now())

	out := buf.String()
	assert.Contains(t, out, `"outcome":"won"`)
	assert.Contains(t, out, "Recommendation settled")
}

func TestAuditLogger_CircuitBreakerEventAtWarn(t *testing.T) {
	base, buf := newCapturedLogger(logrus.WarnLevel)
	al := NewAuditLogger(base)

	al.LogCircuitBreakerEvent("trip", "max drawdown exceeded",
		map[string]interface{}{"drawdown": 0.22}, "halt recommendations")

	out := buf.String()
	require.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, `"event_type":"trip"`)
}

func TestEngineLogger_CycleLifecycle(t *testing.T) {
	base, buf := newCapturedLogger(logrus.InfoLevel)
	el := NewEngineLogger(base)

	el.LogCycleStart("cycle-7", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 42)
	el.LogCycleComplete("cycle-7", 42, 18, 5, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, `"component":"engine"`)
	assert.Contains(t, out, `"cycle_id":"cycle-7"`)
	assert.Contains(t, out, `"surfaced":5`)
}

func TestEngineLogger_ValidationFailure(t *testing.T) {
	base, buf := newCapturedLogger(logrus.WarnLevel)
	el := NewEngineLogger(base)

	el.LogValidationFailure("player-23", "player_prop", "probability", 1.2, "outside [0,1]")

	out := buf.String()
	assert.Contains(t, out, `"field":"probability"`)
	assert.Contains(t, out, "Candidate failed validation")
}

func TestEngineLogger_DataRefreshError(t *testing.T) {
	base, buf := newCapturedLogger(logrus.InfoLevel)
	el := NewEngineLogger(base)

	el.LogDataRefresh("stats_api", 0, time.Second, assert.AnError)

	out := buf.String()
	assert.Contains(t, out, `"source":"stats_api"`)
	assert.Contains(t, out, "Data refresh failed")
}
