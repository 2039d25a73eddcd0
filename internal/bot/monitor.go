package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

// MonitorMetrics tracks settlement statistics
type MonitorMetrics struct {
	SettlementsPerformed int64     `json:"settlements_performed"`
	PendingRemaining     int64     `json:"pending_remaining"`
	LastRunTime          time.Time `json:"last_run_time"`
	RunErrors            int64     `json:"run_errors"`
}

// SettlementMonitor settles pending recommendations once final box scores
// land, feeds results into the risk manager and circuit breaker, and keeps
// the bankroll gauge current.
type SettlementMonitor struct {
	recRepo        repository.RecommendationRepository
	gameLogRepo    repository.GameLogRepository
	riskManager    *RiskManager
	circuitBreaker *CircuitBreaker
	auditLog       *logger.AuditLogger
	updateInterval time.Duration
	logger         *logrus.Logger
	metrics        *MonitorMetrics
	mu             sync.RWMutex
	done           chan struct{}
}

// NewSettlementMonitor creates a settlement monitor
func NewSettlementMonitor(
	recRepo repository.RecommendationRepository,
	gameLogRepo repository.GameLogRepository,
	riskManager *RiskManager,
	circuitBreaker *CircuitBreaker,
	updateInterval time.Duration,
	baseLogger *logrus.Logger,
) *SettlementMonitor {
	return &SettlementMonitor{
		recRepo:        recRepo,
		gameLogRepo:    gameLogRepo,
		riskManager:    riskManager,
		circuitBreaker: circuitBreaker,
		auditLog:       logger.NewAuditLogger(baseLogger),
		updateInterval: updateInterval,
		logger:         baseLogger,
		metrics: &MonitorMetrics{
			LastRunTime: time.Now(),
		},
		done: make(chan struct{}),
	}
}

// Start begins the settlement loop
func (m *SettlementMonitor) Start(ctx context.Context) error {
	m.logger.WithField("update_interval", m.updateInterval).Info("Starting settlement monitor")

	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	if err := m.SettlePending(ctx); err != nil {
		m.logger.WithError(err).Error("Initial settlement run failed")
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Settlement monitor stopped by context")
			return ctx.Err()

		case <-m.done:
			m.logger.Info("Settlement monitor stopped")
			return nil

		case <-ticker.C:
			if err := m.SettlePending(ctx); err != nil {
				m.logger.WithError(err).Error("Settlement run failed")
			}
		}
	}
}

// Stop gracefully stops the monitor
func (m *SettlementMonitor) Stop() error {
	close(m.done)
	return nil
}

// SettlePending walks the pending recommendations and settles those whose
// game results have landed. A recommendation with no result yet stays
// pending; a per-bet failure is logged and skipped.
func (m *SettlementMonitor) SettlePending(ctx context.Context) error {
	pending, err := m.recRepo.GetPending(ctx)
	if err != nil {
		m.mu.Lock()
		m.metrics.RunErrors++
		m.mu.Unlock()
		return fmt.Errorf("failed to get pending recommendations: %w", err)
	}

	settled := 0
	remaining := 0

	for _, rec := range pending {
		won, found, err := m.resolveOutcome(ctx, rec)
		if err != nil {
			m.logger.WithError(err).WithField("recommendation_id", rec.ID).Warn("Failed to resolve outcome")
			remaining++
			continue
		}
		if !found {
			remaining++
			continue
		}

		profitLoss := -rec.Stake
		if won {
			profitLoss = rec.Stake * (rec.Odds - 1.0)
		}

		settledAt := time.Now()
		if err := m.recRepo.Settle(ctx, rec.ID, won, profitLoss, settledAt); err != nil {
			m.logger.WithError(err).WithField("recommendation_id", rec.ID).Error("Failed to settle recommendation")
			remaining++
			continue
		}

		rec.Outcome = &won
		rec.ProfitLoss = &profitLoss
		rec.Status = models.BetStatusSettled
		rec.SettledAt = &settledAt

		bankroll := m.riskManager.ApplySettlement(profitLoss)
		m.circuitBreaker.RecordSettlement(rec, bankroll)
		metrics.RecordSettlement()

		outcome := "loss"
		if won {
			outcome = "win"
		}
		m.auditLog.LogSettlement(rec.ID.String(), outcome, profitLoss, settledAt)
		settled++
	}

	if settled > 0 {
		if err := m.riskManager.UpdateExposure(ctx); err != nil {
			m.logger.WithError(err).Warn("Failed to refresh exposure after settlements")
		}
	}

	m.mu.Lock()
	m.metrics.SettlementsPerformed += int64(settled)
	m.metrics.PendingRemaining = int64(remaining)
	m.metrics.LastRunTime = time.Now()
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"settled":   settled,
		"remaining": remaining,
	}).Info("Settlement run completed")

	return nil
}

// resolveOutcome determines whether the recommendation won. found is false
// when the game result has not landed yet.
func (m *SettlementMonitor) resolveOutcome(ctx context.Context, rec *models.Recommendation) (won, found bool, err error) {
	switch rec.MarketType {
	case models.MarketPlayerProp:
		return m.resolvePlayerProp(ctx, rec)
	case models.MarketTeamSides, models.MarketTotals:
		return m.resolveTeamMarket(ctx, rec)
	default:
		return false, false, fmt.Errorf("%w: %q", models.ErrUnknownMarketType, rec.MarketType)
	}
}

func (m *SettlementMonitor) resolvePlayerProp(ctx context.Context, rec *models.Recommendation) (bool, bool, error) {
	dayStart := rec.CreatedAt.Truncate(24 * time.Hour)
	logs, err := m.gameLogRepo.GetByPlayerAndDateRange(ctx, rec.PlayerID, dayStart, dayStart.Add(48*time.Hour))
	if err != nil {
		return false, false, err
	}
	if len(logs) == 0 {
		return false, false, nil
	}

	value := logs[0].Stat(rec.Stat)
	over := value >= rec.Line
	if rec.Selection == "under" {
		return !over, true, nil
	}
	return over, true, nil
}

func (m *SettlementMonitor) resolveTeamMarket(ctx context.Context, rec *models.Recommendation) (bool, bool, error) {
	team := rec.Team
	if rec.MarketType == models.MarketTeamSides && rec.Selection == "away" {
		team = rec.Opponent
	}

	totals, err := m.gameLogRepo.GetTeamGameTotals(ctx, team, 10)
	if err != nil {
		return false, false, err
	}

	dayStart := rec.CreatedAt.Truncate(24 * time.Hour)
	for i := range totals {
		t := &totals[i]
		if t.GameDate.Before(dayStart) {
			continue
		}
		if t.GameDate.After(dayStart.Add(48 * time.Hour)) {
			continue
		}

		if rec.MarketType == models.MarketTotals {
			over := t.TotalPoints() >= rec.Line
			if rec.Selection == "under" {
				return !over, true, nil
			}
			return over, true, nil
		}
		return t.Won(), true, nil
	}

	return false, false, nil
}

// GetMetrics returns a snapshot of settlement statistics
func (m *SettlementMonitor) GetMetrics() MonitorMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.metrics
}
