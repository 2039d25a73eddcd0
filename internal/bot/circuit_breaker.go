package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means recommendations flow normally
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen means cycles are resuming after cooldown
	CircuitHalfOpen
	// CircuitOpen means recommendation cycles are halted
	CircuitOpen
)

// String returns string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	case CircuitOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig defines circuit breaker thresholds
type CircuitBreakerConfig struct {
	MaxConsecutiveLosses int           `json:"max_consecutive_losses"`
	MaxDrawdownPercent   float64       `json:"max_drawdown_percent"`
	MaxFailureCount      int           `json:"max_failure_count"`
	FailureTimeWindow    time.Duration `json:"failure_time_window"`
	CooldownPeriod       time.Duration `json:"cooldown_period"`
}

// CircuitBreakerConfigFromEngine builds breaker thresholds from engine
// configuration with fixed operational defaults for the failure window.
func CircuitBreakerConfigFromEngine(cfg *config.EngineConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxConsecutiveLosses: cfg.MaxConsecutiveLosses,
		MaxDrawdownPercent:   cfg.MaxDrawdownPercent,
		MaxFailureCount:      10,
		FailureTimeWindow:    5 * time.Minute,
		CooldownPeriod:       30 * time.Minute,
	}
}

// ShutdownCallback is called when emergency shutdown is triggered
type ShutdownCallback func(reason string) error

// CircuitBreaker halts recommendation cycles on loss streaks, drawdown, or
// repeated upstream failures.
type CircuitBreaker struct {
	config            CircuitBreakerConfig
	state             CircuitState
	failureCount      int
	lastFailureTime   time.Time
	consecutiveLosses int
	drawdown          float64
	peakBankroll      float64
	mu                sync.Mutex
	logger            *logrus.Logger
	callbacks         []ShutdownCallback
	openedAt          time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config:    config,
		state:     CircuitClosed,
		logger:    logger,
		callbacks: make([]ShutdownCallback, 0),
	}
}

// RecordSettlement tracks settled recommendation outcomes for loss streaks
// and drawdown.
func (cb *CircuitBreaker) RecordSettlement(rec *models.Recommendation, currentBankroll float64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if currentBankroll > cb.peakBankroll {
		cb.peakBankroll = currentBankroll
	}

	if cb.peakBankroll > 0 {
		cb.drawdown = (cb.peakBankroll - currentBankroll) / cb.peakBankroll
	}

	if rec.ProfitLoss != nil && *rec.ProfitLoss < 0 {
		cb.consecutiveLosses++

		cb.logger.WithFields(logrus.Fields{
			"consecutive_losses": cb.consecutiveLosses,
			"max_allowed":        cb.config.MaxConsecutiveLosses,
			"drawdown":           cb.drawdown,
			"max_drawdown":       cb.config.MaxDrawdownPercent,
		}).Warn("Consecutive loss recorded")

		if cb.consecutiveLosses >= cb.config.MaxConsecutiveLosses {
			cb.triggerEmergencyShutdownLocked(fmt.Sprintf(
				"Max consecutive losses exceeded (%d >= %d)",
				cb.consecutiveLosses, cb.config.MaxConsecutiveLosses,
			))
			return
		}

		if cb.drawdown >= cb.config.MaxDrawdownPercent {
			cb.triggerEmergencyShutdownLocked(fmt.Sprintf(
				"Max drawdown exceeded (%.2f%% >= %.2f%%)",
				cb.drawdown*100, cb.config.MaxDrawdownPercent*100,
			))
			return
		}
	} else if rec.ProfitLoss != nil && *rec.ProfitLoss > 0 {
		cb.consecutiveLosses = 0
	}
}

// RecordFailure increments failure count and opens circuit if threshold exceeded
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	if now.Sub(cb.lastFailureTime) > cb.config.FailureTimeWindow {
		cb.failureCount = 0
	}

	cb.failureCount++
	cb.lastFailureTime = now

	cb.logger.WithFields(logrus.Fields{
		"failure_count": cb.failureCount,
		"max_allowed":   cb.config.MaxFailureCount,
		"time_window":   cb.config.FailureTimeWindow,
		"error":         err.Error(),
	}).Warn("Failure recorded")

	if cb.failureCount >= cb.config.MaxFailureCount {
		cb.triggerEmergencyShutdownLocked(fmt.Sprintf(
			"Max failure count exceeded (%d >= %d) within %v",
			cb.failureCount, cb.config.MaxFailureCount, cb.config.FailureTimeWindow,
		))
	}
}

// RecordSuccess resets failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.logger.Info("Circuit breaker closed after successful half-open cycle")
	}
}

// IsOpen returns true if the circuit is open. An open circuit transitions to
// half-open once the cooldown period has passed.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && time.Since(cb.openedAt) > cb.config.CooldownPeriod {
		cb.state = CircuitHalfOpen
		cb.logger.Info("Circuit breaker entering half-open state after cooldown")
	}

	return cb.state == CircuitOpen
}

// GetState returns current circuit state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Reset manually resets circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = CircuitClosed
	cb.failureCount = 0
	cb.consecutiveLosses = 0

	cb.logger.WithFields(logrus.Fields{
		"old_state": oldState.String(),
		"new_state": cb.state.String(),
	}).Info("Circuit breaker manually reset")
}

// RegisterShutdownCallback registers a callback for emergency shutdown
func (cb *CircuitBreaker) RegisterShutdownCallback(callback ShutdownCallback) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.callbacks = append(cb.callbacks, callback)
}

// TriggerEmergencyShutdown opens circuit and executes all callbacks
func (cb *CircuitBreaker) TriggerEmergencyShutdown(reason string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.triggerEmergencyShutdownLocked(reason)
}

// triggerEmergencyShutdownLocked is internal version that assumes lock is held
func (cb *CircuitBreaker) triggerEmergencyShutdownLocked(reason string) {
	if cb.state == CircuitOpen {
		cb.logger.Warn("Emergency shutdown already triggered, ignoring duplicate call")
		return
	}

	oldState := cb.state
	cb.state = CircuitOpen
	cb.openedAt = time.Now()
	metrics.RecordCircuitBreakerTrip()

	cb.logger.WithFields(logrus.Fields{
		"old_state":          oldState.String(),
		"new_state":          cb.state.String(),
		"reason":             reason,
		"consecutive_losses": cb.consecutiveLosses,
		"drawdown":           cb.drawdown,
		"failure_count":      cb.failureCount,
		"cooldown_period":    cb.config.CooldownPeriod,
	}).Error("EMERGENCY SHUTDOWN TRIGGERED")

	for i, callback := range cb.callbacks {
		if err := callback(reason); err != nil {
			cb.logger.WithFields(logrus.Fields{
				"callback_index": i,
				"error":          err.Error(),
			}).Error("Shutdown callback failed")
		}
	}
}
