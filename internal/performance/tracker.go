package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/repository"
)

// Tracker periodically recomputes realized performance from the settled
// recommendations in the database and republishes the gauges.
type Tracker struct {
	recRepo         repository.RecommendationRepository
	initialBankroll float64
	window          time.Duration
	logger          *logrus.Logger
	mu              sync.RWMutex
	latest          *Report
	done            chan struct{}
}

// NewTracker creates a performance tracker. window bounds how far back the
// report looks; zero means the full season to date.
func NewTracker(recRepo repository.RecommendationRepository, initialBankroll float64, window time.Duration, logger *logrus.Logger) *Tracker {
	return &Tracker{
		recRepo:         recRepo,
		initialBankroll: initialBankroll,
		window:          window,
		logger:          logger,
		done:            make(chan struct{}),
	}
}

// Refresh recomputes the report and publishes it.
func (t *Tracker) Refresh(ctx context.Context) (*Report, error) {
	end := time.Now()
	start := end.Add(-t.window)
	if t.window <= 0 {
		start = time.Time{}
	}

	settled, err := t.recRepo.GetSettled(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled recommendations: %w", err)
	}

	report := Analyze(settled, t.initialBankroll)
	report.Publish()

	t.mu.Lock()
	t.latest = report
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{
		"bets":     report.TotalBets,
		"hit_rate": report.HitRate,
		"roi":      report.ROI,
	}).Info("Performance report refreshed")

	return report, nil
}

// Start runs the refresh loop until Stop or context cancellation.
func (t *Tracker) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := t.Refresh(ctx); err != nil {
		t.logger.WithError(err).Warn("Initial performance refresh failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		case <-ticker.C:
			if _, err := t.Refresh(ctx); err != nil {
				t.logger.WithError(err).Warn("Performance refresh failed")
			}
		}
	}
}

// Stop ends the refresh loop.
func (t *Tracker) Stop() {
	close(t.done)
}

// Latest returns the most recent report, or nil before the first refresh.
func (t *Tracker) Latest() *Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}
