package bot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/repository"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// MinStake is the smallest stake worth recommending; anything below it is
// treated as no bet.
const MinStake = 2.0

// RiskMetrics represents current risk exposure and limits
type RiskMetrics struct {
	Bankroll          float64   `json:"bankroll"`
	CurrentExposure   float64   `json:"current_exposure"`
	DailyLoss         float64   `json:"daily_loss"`
	MaxExposure       float64   `json:"max_exposure"`
	MaxDailyLoss      float64   `json:"max_daily_loss"`
	RemainingCapacity float64   `json:"remaining_capacity"`
	LastUpdate        time.Time `json:"last_update"`
}

// RiskManager handles position sizing and risk limit validation
type RiskManager struct {
	config             *config.EngineConfig
	recRepo            repository.RecommendationRepository
	bankroll           float64
	currentExposure    float64
	dailyLoss          float64
	dailyLossResetTime time.Time
	mu                 sync.RWMutex
	logger             *logrus.Logger
}

// NewRiskManager creates a new risk manager
func NewRiskManager(cfg *config.EngineConfig, recRepo repository.RecommendationRepository, logger *logrus.Logger) *RiskManager {
	now := time.Now()
	resetTime := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	return &RiskManager{
		config:             cfg,
		recRepo:            recRepo,
		bankroll:           cfg.Bankroll,
		dailyLossResetTime: resetTime,
		logger:             logger,
	}
}

// CalculatePositionSize calculates a stake from fractional Kelly sizing. A
// zero stake means no bet, not an error.
func (rm *RiskManager) CalculatePositionSize(probability, odds float64) (float64, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if odds <= 1.0 {
		return 0, fmt.Errorf("odds %.2f must exceed 1.0", odds)
	}

	kelly := stats.KellyFraction(probability, odds)
	fractionalKelly := kelly * rm.config.KellyFraction

	if fractionalKelly <= 0 {
		rm.logger.WithFields(logrus.Fields{
			"odds":        odds,
			"probability": probability,
			"kelly":       kelly,
		}).Debug("Non-positive Kelly fraction, no bet recommended")
		return 0, nil
	}

	stake := rm.bankroll * fractionalKelly

	if stake > rm.config.MaxStakePerBet {
		rm.logger.WithFields(logrus.Fields{
			"calculated_stake": stake,
			"max_stake":        rm.config.MaxStakePerBet,
		}).Debug("Stake capped at maximum")
		stake = rm.config.MaxStakePerBet
	}

	if stake < MinStake {
		rm.logger.WithFields(logrus.Fields{
			"calculated_stake": stake,
			"min_stake":        MinStake,
		}).Debug("Stake below minimum, no bet recommended")
		return 0, nil
	}

	rm.logger.WithFields(logrus.Fields{
		"bankroll":         rm.bankroll,
		"odds":             odds,
		"probability":      probability,
		"kelly_fraction":   kelly,
		"fractional_kelly": fractionalKelly,
		"stake":            stake,
	}).Debug("Position size calculated")

	return stake, nil
}

// CheckRiskLimits validates a proposed stake against risk limits
func (rm *RiskManager) CheckRiskLimits(ctx context.Context, proposedStake float64) error {
	rm.mu.RLock()
	resetDue := time.Now().After(rm.dailyLossResetTime)
	rm.mu.RUnlock()

	if resetDue {
		if err := rm.UpdateDailyLoss(ctx); err != nil {
			rm.logger.WithError(err).Error("Failed to update daily loss")
		}
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if proposedStake > rm.config.MaxStakePerBet {
		return fmt.Errorf("proposed stake %.2f exceeds max stake per bet %.2f",
			proposedStake, rm.config.MaxStakePerBet)
	}

	newExposure := rm.currentExposure + proposedStake
	if newExposure > rm.config.MaxExposure {
		return fmt.Errorf("proposed stake would exceed max exposure (current: %.2f, proposed: %.2f, max: %.2f)",
			rm.currentExposure, proposedStake, rm.config.MaxExposure)
	}

	if rm.dailyLoss >= rm.config.MaxDailyLoss {
		return fmt.Errorf("daily loss limit reached (current: %.2f, max: %.2f)",
			rm.dailyLoss, rm.config.MaxDailyLoss)
	}

	rm.logger.WithFields(logrus.Fields{
		"proposed_stake":   proposedStake,
		"current_exposure": rm.currentExposure,
		"daily_loss":       rm.dailyLoss,
		"max_exposure":     rm.config.MaxExposure,
		"max_daily_loss":   rm.config.MaxDailyLoss,
	}).Debug("Risk limits validated successfully")

	return nil
}

// UpdateExposure recalculates current exposure from pending recommendations
func (rm *RiskManager) UpdateExposure(ctx context.Context) error {
	pending, err := rm.recRepo.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending recommendations: %w", err)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	totalExposure := 0.0
	for _, rec := range pending {
		totalExposure += rec.Stake
	}

	rm.currentExposure = totalExposure
	metrics.UpdateExposure(totalExposure)

	rm.logger.WithFields(logrus.Fields{
		"pending_recommendations": len(pending),
		"current_exposure":        rm.currentExposure,
		"max_exposure":            rm.config.MaxExposure,
		"exposure_used_pct":       (rm.currentExposure / rm.config.MaxExposure) * 100,
	}).Info("Exposure updated")

	return nil
}

// UpdateDailyLoss recalculates the day's P&L from settled recommendations and
// rolls the reset time to the next midnight.
func (rm *RiskManager) UpdateDailyLoss(ctx context.Context) error {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	settled, err := rm.recRepo.GetSettled(ctx, startOfDay, endOfDay)
	if err != nil {
		return fmt.Errorf("failed to get settled recommendations: %w", err)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	totalPL := 0.0
	for _, rec := range settled {
		if rec.ProfitLoss != nil {
			totalPL += *rec.ProfitLoss
		}
	}

	if totalPL < 0 {
		rm.dailyLoss = math.Abs(totalPL)
	} else {
		rm.dailyLoss = 0
	}
	metrics.UpdateDailyPnL(totalPL)

	rm.dailyLossResetTime = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	rm.logger.WithFields(logrus.Fields{
		"settled_today":  len(settled),
		"total_pl":       totalPL,
		"daily_loss":     rm.dailyLoss,
		"max_daily_loss": rm.config.MaxDailyLoss,
		"next_reset":     rm.dailyLossResetTime,
	}).Info("Daily loss updated")

	return nil
}

// ApplySettlement adjusts the tracked bankroll by a settled P&L and returns
// the new bankroll.
func (rm *RiskManager) ApplySettlement(profitLoss float64) float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.bankroll += profitLoss
	if profitLoss < 0 {
		rm.dailyLoss += math.Abs(profitLoss)
	}
	metrics.UpdateBankroll(rm.bankroll)

	return rm.bankroll
}

// Bankroll returns the current tracked bankroll
func (rm *RiskManager) Bankroll() float64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.bankroll
}

// IsWithinLimits checks if current state allows new recommendations
func (rm *RiskManager) IsWithinLimits() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.currentExposure >= rm.config.MaxExposure {
		rm.logger.Warn("Max exposure limit reached")
		return false
	}

	if rm.dailyLoss >= rm.config.MaxDailyLoss {
		rm.logger.Warn("Max daily loss limit reached")
		return false
	}

	return true
}

// GetRiskMetrics returns current risk metrics for monitoring
func (rm *RiskManager) GetRiskMetrics() RiskMetrics {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return RiskMetrics{
		Bankroll:          rm.bankroll,
		CurrentExposure:   rm.currentExposure,
		DailyLoss:         rm.dailyLoss,
		MaxExposure:       rm.config.MaxExposure,
		MaxDailyLoss:      rm.config.MaxDailyLoss,
		RemainingCapacity: rm.config.MaxExposure - rm.currentExposure,
		LastUpdate:        time.Now(),
	}
}
