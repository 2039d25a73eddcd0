// Package bot coordinates the recommendation pipeline: odds snapshot in,
// projections and context analysis per market, validation, ranking, and
// persisted recommendations out. Risk sizing and the circuit breaker gate
// every cycle.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/cache"
	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/projection"
	"github.com/expert-sys/positive-edge/internal/ranking"
	"github.com/expert-sys/positive-edge/internal/repository"
	"github.com/expert-sys/positive-edge/internal/situation"
	"github.com/expert-sys/positive-edge/internal/stats"
	"github.com/expert-sys/positive-edge/internal/validation"
)

// playerLogWindow is how many recent games feed a projection run.
const playerLogWindow = 30

// teamGameWindow is how many recent team games feed a team-market analysis.
const teamGameWindow = 30

// promotionEVPer100 is the large-edge rule: a B-grade bet whose EV per 100
// staked reaches this level is promoted to A and validates against the B
// threshold.
const promotionEVPer100 = 10.0

// Baselines the context factors are measured against.
const (
	paceBaseline    = 100.0
	defenseBaseline = 110.0
)

// EngineStatus represents current engine status
type EngineStatus struct {
	Running             bool         `json:"running"`
	CircuitBreakerState CircuitState `json:"circuit_breaker_state"`
	RiskMetrics         RiskMetrics  `json:"risk_metrics"`
	LastCycleAt         time.Time    `json:"last_cycle_at"`
	LastCycleSurfaced   int          `json:"last_cycle_surfaced"`
}

// Engine runs recommendation cycles end to end.
type Engine struct {
	config         *config.Config
	repos          *repository.Repositories
	odds           datasource.OddsProvider
	lineups        datasource.LineupProvider
	projector      *projection.Projector
	analyzer       *situation.Analyzer
	validator      *validation.Validator
	ranker         *ranking.Ranker
	riskManager    *RiskManager
	circuitBreaker *CircuitBreaker
	sessionCache   *cache.SessionCache
	store          *cache.PersistentStore
	engineLog      *logger.EngineLogger
	auditLog       *logger.AuditLogger
	logger         *logrus.Logger

	enabledMarkets map[models.MarketType]bool

	mu                sync.RWMutex
	running           bool
	done              chan struct{}
	lastCycleAt       time.Time
	lastCycleSurfaced int
}

// NewEngine creates a recommendation engine.
func NewEngine(
	cfg *config.Config,
	repos *repository.Repositories,
	oddsProvider datasource.OddsProvider,
	riskManager *RiskManager,
	circuitBreaker *CircuitBreaker,
	sessionCache *cache.SessionCache,
	baseLogger *logrus.Logger,
) (*Engine, error) {
	if oddsProvider == nil {
		return nil, fmt.Errorf("odds provider is required")
	}
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	enabled := make(map[models.MarketType]bool, len(cfg.Engine.Markets))
	for _, m := range cfg.Engine.Markets {
		enabled[models.MarketType(m)] = true
	}
	if !cfg.Features.TeamMarketsEnabled {
		delete(enabled, models.MarketTeamSides)
		delete(enabled, models.MarketTotals)
	}

	e := &Engine{
		config:         cfg,
		repos:          repos,
		odds:           oddsProvider,
		projector:      projection.NewProjector(baseLogger),
		analyzer:       situation.NewAnalyzer(baseLogger),
		validator:      validation.NewValidator(cfg.Engine.StrictValidation, baseLogger),
		ranker:         ranking.NewRanker(baseLogger),
		riskManager:    riskManager,
		circuitBreaker: circuitBreaker,
		sessionCache:   sessionCache,
		engineLog:      logger.NewEngineLogger(baseLogger),
		auditLog:       logger.NewAuditLogger(baseLogger),
		logger:         baseLogger,
		enabledMarkets: enabled,
		done:           make(chan struct{}),
	}

	circuitBreaker.RegisterShutdownCallback(func(reason string) error {
		baseLogger.WithField("reason", reason).Error("Engine halted by circuit breaker")
		return nil
	})

	return e, nil
}

// SetLineupProvider wires an optional availability feed. Without one every
// candidate's injury impact is neutral.
func (e *Engine) SetLineupProvider(lp datasource.LineupProvider) {
	e.lineups = lp
}

// SetPersistentStore wires the durable cache layer under the session cache,
// so scouting data survives restarts.
func (e *Engine) SetPersistentStore(store *cache.PersistentStore) {
	e.store = store
}

// scoutingCache layers the configured cache tiers. Nil without a session
// cache; the persistent layer alone has no staleness budgets to apply.
func (e *Engine) scoutingCache() *cache.TieredCache {
	if e.sessionCache == nil {
		return nil
	}
	return cache.NewTieredCache(e.sessionCache, e.store)
}

// Start begins the cycle loop. It returns immediately; cycles run in a
// goroutine until Stop or context cancellation.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine is already running")
	}
	e.running = true
	e.mu.Unlock()

	if err := e.riskManager.UpdateExposure(ctx); err != nil {
		e.logger.WithError(err).Warn("Failed to update initial exposure")
	}
	if err := e.riskManager.UpdateDailyLoss(ctx); err != nil {
		e.logger.WithError(err).Warn("Failed to update initial daily loss")
	}

	go e.cycleLoop(ctx)

	e.logger.WithFields(logrus.Fields{
		"markets":         e.config.Engine.Markets,
		"circuit_breaker": e.circuitBreaker.GetState().String(),
	}).Info("Recommendation engine started")

	return nil
}

// Stop gracefully stops the engine.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false
	close(e.done)

	e.logger.Info("Recommendation engine stopped")
	return nil
}

func (e *Engine) cycleLoop(ctx context.Context) {
	interval := time.Duration(e.config.DataSources.Schedule.LivePollingIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Cycle loop stopped by context")
			return
		case <-e.done:
			return
		case <-ticker.C:
			if e.circuitBreaker.IsOpen() {
				e.logger.Warn("Cycle skipped: circuit breaker is open")
				continue
			}
			if !e.riskManager.IsWithinLimits() {
				e.logger.Warn("Cycle skipped: risk limits exceeded")
				continue
			}

			if _, err := e.RunCycle(ctx, time.Now()); err != nil {
				e.circuitBreaker.RecordFailure(err)
				continue
			}
			e.circuitBreaker.RecordSuccess()
		}
	}
}

// RunCycle executes one full recommendation cycle for a slate date and
// returns the surfaced recommendations. A failed candidate is dropped, never
// fatal; only a failed odds snapshot fails the cycle.
func (e *Engine) RunCycle(ctx context.Context, date time.Time) ([]*models.Recommendation, error) {
	start := time.Now()
	cycleID := uuid.New().String()[:8]

	offers, err := e.odds.FetchMarkets(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market snapshot: %w", err)
	}

	e.engineLog.LogCycleStart(cycleID, date, len(offers))

	candidates := make([]*models.Recommendation, 0, len(offers))
	for i := range offers {
		offer := &offers[i]
		if !e.enabledMarkets[offer.MarketType] {
			continue
		}

		rec, err := e.buildCandidate(ctx, offer)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": offer.GameID,
				"market":  offer.MarketType,
			}).Warn("Candidate build failed")
			continue
		}
		if rec != nil {
			candidates = append(candidates, rec)
		}
	}

	validated := make([]*models.Recommendation, 0, len(candidates))
	for _, rec := range candidates {
		if e.validateCandidate(rec) {
			validated = append(validated, rec)
		}
	}

	surfaced := e.ranker.Rank(validated)
	if max := e.config.Engine.MaxRecommendations; len(surfaced) > max {
		surfaced = surfaced[:max]
	}

	stored := make([]*models.Recommendation, 0, len(surfaced))
	for _, rec := range surfaced {
		if err := e.riskManager.CheckRiskLimits(ctx, rec.Stake); err != nil {
			e.logger.WithError(err).WithField("recommendation_id", rec.ID).Warn("Recommendation dropped by risk limits")
			continue
		}
		if err := e.repos.Recommendation.Create(ctx, rec); err != nil {
			e.logger.WithError(err).WithField("recommendation_id", rec.ID).Error("Failed to store recommendation")
			continue
		}

		metrics.RecordRecommendation()
		metrics.RecordTierRecommendation(string(rec.MarketType), string(rec.Tier))
		e.auditLog.LogRecommendation(
			rec.ID.String(), rec.GameID, rec.PlayerID,
			string(rec.MarketType), string(rec.Tier),
			rec.Probability, rec.Confidence, rec.Odds, rec.EV*100, rec.CreatedAt,
		)
		stored = append(stored, rec)
	}

	duration := time.Since(start)
	metrics.RecordCycle(duration.Seconds(), len(stored))
	e.engineLog.LogCycleComplete(cycleID, len(candidates), len(validated), len(stored), duration)

	e.mu.Lock()
	e.lastCycleAt = time.Now()
	e.lastCycleSurfaced = len(stored)
	e.mu.Unlock()

	return stored, nil
}

// buildCandidate turns one market offer into a sized recommendation, or nil
// when the data does not support a bet.
func (e *Engine) buildCandidate(ctx context.Context, offer *datasource.MarketOffer) (*models.Recommendation, error) {
	switch offer.MarketType {
	case models.MarketPlayerProp:
		return e.playerPropCandidate(ctx, offer)
	case models.MarketTeamSides, models.MarketTotals:
		return e.teamMarketCandidate(ctx, offer)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownMarketType, offer.MarketType)
	}
}

func (e *Engine) playerPropCandidate(ctx context.Context, offer *datasource.MarketOffer) (*models.Recommendation, error) {
	odds, _ := offer.Odds.Float64()

	logs, err := e.playerLogs(ctx, offer.PlayerID)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		metrics.RecordProjectionSkipped()
		e.engineLog.LogProjectionSkipped(offer.PlayerID, string(offer.Stat), "no game logs")
		return nil, nil
	}

	team := logs[0].Team
	opponent := offer.AwayTeam
	home := team == offer.HomeTeam
	if !home {
		opponent = offer.HomeTeam
	}

	teamStats, _ := e.repos.TeamStats.GetByTeam(ctx, team)
	oppStats, _ := e.repos.TeamStats.GetByTeam(ctx, opponent)

	projStart := time.Now()
	proj := e.projector.Project(projection.Input{
		PlayerID:    offer.PlayerID,
		PlayerName:  offer.PlayerName,
		Logs:        logs,
		Stat:        offer.Stat,
		Line:        offer.Line,
		GameDate:    offer.GameDate,
		Team:        teamStats,
		Opponent:    oppStats,
		SeasonPer36: seasonPer36(logs, offer.Stat),
	})
	metrics.RecordProjection(time.Since(projStart).Seconds())

	if proj == nil {
		metrics.RecordProjectionSkipped()
		e.engineLog.LogProjectionSkipped(offer.PlayerID, string(offer.Stat), "insufficient data")
		return nil, nil
	}

	probability := proj.CalibratedProbability
	if offer.Selection == "under" {
		probability = stats.Clamp(1.0-probability, 0.01, 0.99)
	}

	factors := contextFactors(lastGameDate(logs), offer.GameDate, home, teamStats, oppStats)
	factors.InjuryImpact = e.lineupImpact(ctx, team, offer.GameDate)

	outcomes := propOutcomes(logs, offer.Stat, offer.Line, offer.Selection)
	analysis := e.analyzer.Analyze(situation.Input{
		HistoricalOutcomes: outcomes,
		Insight:            propInsight(offer, outcomes),
		Odds:               odds,
		Factors:            factors,
	})

	trendScore := 5.0
	matchupAligned := false
	if analysis != nil {
		trendScore = analysis.TrendWeight * 10.0
		modelEdge := probability - stats.ImpliedProbability(odds)
		matchupAligned = (analysis.Edge > 0) == (modelEdge > 0)
	}

	return e.assemble(ctx, offer, probability, proj.Confidence, proj.SampleSize, trendScore, matchupAligned, true)
}

func (e *Engine) teamMarketCandidate(ctx context.Context, offer *datasource.MarketOffer) (*models.Recommendation, error) {
	odds, _ := offer.Odds.Float64()

	team := offer.HomeTeam
	if offer.MarketType == models.MarketTeamSides && offer.Selection == "away" {
		team = offer.AwayTeam
	}
	opponent := offer.AwayTeam
	if team == offer.AwayTeam {
		opponent = offer.HomeTeam
	}

	totals, err := e.repos.GameLog.GetTeamGameTotals(ctx, team, teamGameWindow)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return nil, nil
	}

	teamStats, _ := e.repos.TeamStats.GetByTeam(ctx, team)
	oppStats, _ := e.repos.TeamStats.GetByTeam(ctx, opponent)

	factors := contextFactors(totals[0].GameDate, offer.GameDate, team == offer.HomeTeam, teamStats, oppStats)
	factors.InjuryImpact = e.lineupImpact(ctx, team, offer.GameDate)

	outcomes := teamOutcomes(totals, offer)
	analysis := e.analyzer.Analyze(situation.Input{
		HistoricalOutcomes: outcomes,
		Insight:            teamInsight(team, offer, outcomes),
		Odds:               odds,
		Factors:            factors,
	})
	if analysis == nil {
		return nil, nil
	}

	confidence := teamConfidence(analysis)
	trendScore := analysis.TrendWeight * 10.0

	return e.assemble(ctx, offer, analysis.FinalProbability, confidence, analysis.SampleSize, trendScore, analysis.Edge > 0, false)
}

// assemble grades, sizes and packages one candidate. Returns nil when the
// grade is below C, the stake rounds to nothing, or validation rejects it.
func (e *Engine) assemble(ctx context.Context, offer *datasource.MarketOffer, probability, confidence float64, sampleSize int, trendScore float64, matchupAligned, modelBacked bool) (*models.Recommendation, error) {
	odds, _ := offer.Odds.Float64()
	ev := probability*odds - 1.0

	tier, promoted, ok := e.gradeTier(offer.MarketType, confidence, ev)
	if !ok {
		return nil, nil
	}

	stake, err := e.riskManager.CalculatePositionSize(probability, odds)
	if err != nil {
		return nil, err
	}
	if stake == 0 {
		return nil, nil
	}

	rec := &models.Recommendation{
		ID:             uuid.New(),
		GameID:         offer.GameID,
		PlayerID:       offer.PlayerID,
		PlayerName:     offer.PlayerName,
		Team:           offer.HomeTeam,
		Opponent:       offer.AwayTeam,
		MarketType:     offer.MarketType,
		Stat:           offer.Stat,
		Line:           offer.Line,
		Selection:      offer.Selection,
		Probability:    probability,
		Odds:           odds,
		EV:             ev,
		Confidence:     confidence,
		Tier:           tier,
		Stake:          stake,
		SampleSize:     sampleSize,
		TrendScore:     trendScore,
		MatchupAligned: matchupAligned,
		ModelBacked:    modelBacked,
		Status:         models.BetStatusPending,
		CreatedAt:      time.Now(),
	}

	if promoted {
		e.auditLog.LogTierPromotion(rec.ID.String(), string(models.TierB), string(models.TierA), confidence)
	}

	return rec, nil
}

// validateCandidate runs the invariant set; failures are counted and logged,
// never fatal.
func (e *Engine) validateCandidate(rec *models.Recommendation) bool {
	eval := &models.BetEvaluation{
		Probability: rec.Probability,
		Odds:        rec.Odds,
		EV:          rec.EV,
		Confidence:  rec.Confidence,
		Tier:        rec.Tier,
		MarketType:  rec.MarketType,
		Promoted:    rec.Tier == models.TierA && rec.EV*100 >= promotionEVPer100,
	}

	ok, err := e.validator.Validate(eval)
	if err != nil || !ok {
		metrics.RecordValidationFailure()
		reason := "invariant violation"
		if err != nil {
			reason = err.Error()
		}
		e.engineLog.LogValidationFailure(rec.PlayerID, string(rec.MarketType), "evaluation", rec.Confidence, reason)
		return false
	}
	return true
}

// gradeTier maps confidence onto the market's tier table and applies the
// large-edge promotion rule. ok is false when the grade falls below C.
func (e *Engine) gradeTier(market models.MarketType, confidence, ev float64) (models.Tier, bool, bool) {
	for _, tier := range []models.Tier{models.TierA, models.TierB, models.TierC} {
		threshold, err := validation.TierThreshold(market, tier)
		if err != nil {
			return "", false, false
		}
		if confidence >= threshold {
			if tier == models.TierB && ev*100 >= promotionEVPer100 {
				return models.TierA, true, true
			}
			return tier, false, true
		}
	}
	return "", false, false
}

// lineupImpact fetches the team's availability report through the scouting
// cache and returns its opportunity score. With a persistent store wired the
// report outlives restarts within its staleness budget. No provider or a
// failed fetch means a neutral impact, never an error.
func (e *Engine) lineupImpact(ctx context.Context, team string, gameDate time.Time) float64 {
	if e.lineups == nil || !e.lineups.IsEnabled() {
		return 0
	}

	key := cache.Key{Team: team, Date: gameDate.Format("2006-01-02"), DataType: cache.DataInjury}
	scouting := e.scoutingCache()
	if scouting != nil {
		var raw json.RawMessage
		if err := scouting.GetInto(ctx, key, &raw); err == nil {
			var impact float64
			if json.Unmarshal(raw, &impact) == nil {
				return impact
			}
		}
	}

	report, err := e.lineups.FetchLineupReport(ctx, team)
	if err != nil {
		e.logger.WithError(err).WithField("team", team).Debug("Lineup report unavailable")
		return 0
	}

	impact := report.OpportunityScore
	if scouting != nil {
		if err := scouting.Put(ctx, key, impact); err != nil {
			e.logger.WithError(err).WithField("team", team).Debug("Failed to cache lineup impact")
		}
	}
	return impact
}

// playerLogs fetches a player's recent game logs through the session cache.
func (e *Engine) playerLogs(ctx context.Context, playerID string) ([]models.GameLog, error) {
	key := cache.Key{PlayerID: playerID, DataType: cache.DataGameLogs}
	if e.sessionCache != nil {
		if cached, ok := e.sessionCache.Get(key); ok {
			if logs, ok := cached.([]models.GameLog); ok {
				return logs, nil
			}
		}
	}

	logs, err := e.repos.GameLog.GetByPlayer(ctx, playerID, playerLogWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load game logs for %s: %w", playerID, err)
	}

	if e.sessionCache != nil {
		e.sessionCache.Set(key, logs)
	}
	return logs, nil
}

// GetStatus returns current engine status
func (e *Engine) GetStatus() *EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return &EngineStatus{
		Running:             e.running,
		CircuitBreakerState: e.circuitBreaker.GetState(),
		RiskMetrics:         e.riskManager.GetRiskMetrics(),
		LastCycleAt:         e.lastCycleAt,
		LastCycleSurfaced:   e.lastCycleSurfaced,
	}
}

// seasonPer36 computes the player's season-long per-36 baseline for a stat.
func seasonPer36(logs []models.GameLog, stat models.StatType) float64 {
	var total, minutes float64
	for i := range logs {
		total += logs[i].Stat(stat)
		minutes += logs[i].Minutes
	}
	if minutes <= 0 {
		return 0
	}
	return total / minutes * 36.0
}

// propOutcomes converts game logs into a binary hit sequence for the prop.
func propOutcomes(logs []models.GameLog, stat models.StatType, line float64, selection string) []bool {
	outcomes := make([]bool, 0, len(logs))
	for i := range logs {
		over := logs[i].Stat(stat) >= line
		if selection == "under" {
			outcomes = append(outcomes, !over)
		} else {
			outcomes = append(outcomes, over)
		}
	}
	return outcomes
}

// teamOutcomes converts team game totals into a binary hit sequence for a
// sides or totals market.
func teamOutcomes(totals []models.TeamGameTotal, offer *datasource.MarketOffer) []bool {
	outcomes := make([]bool, 0, len(totals))
	for i := range totals {
		t := &totals[i]
		switch offer.MarketType {
		case models.MarketTotals:
			over := t.TotalPoints() >= offer.Line
			if offer.Selection == "under" {
				outcomes = append(outcomes, !over)
			} else {
				outcomes = append(outcomes, over)
			}
		default:
			outcomes = append(outcomes, t.Won())
		}
	}
	return outcomes
}

// contextFactors derives the situational modifiers for a game.
func contextFactors(lastGame, gameDate time.Time, home bool, team, opp *models.TeamStats) models.ContextFactors {
	f := models.ContextFactors{HomeAdvantage: home}

	if !lastGame.IsZero() && gameDate.After(lastGame) {
		restDays := int(gameDate.Sub(lastGame).Hours() / 24)
		f.RestDays = restDays
		f.BackToBack = restDays <= 1
	}

	if team != nil && opp != nil {
		oppPace := (opp.AvgPointsFor + opp.AvgPointsAgainst) / 2.0
		f.PaceDiff = oppPace - paceBaseline
		f.DefenseDiff = opp.AvgPointsAgainst - defenseBaseline
		f.ClutchDiff = team.ClutchWinPct - opp.ClutchWinPct
	}

	return f
}

// teamConfidence maps the categorical analysis confidence onto the 0-100
// scale the tier tables work in.
func teamConfidence(a *models.ContextAwareAnalysis) float64 {
	var base float64
	switch a.Confidence {
	case models.ConfidenceHigh:
		base = 70.0
	case models.ConfidenceMedium:
		base = 55.0
	default:
		base = 42.0
	}
	base *= stats.ReliabilityMultiplier(a.SampleSize) / stats.ReliabilityMultiplier(30)
	if cap := a.FinalProbability * 100.0; base > cap {
		base = cap
	}
	return base
}

func lastGameDate(logs []models.GameLog) time.Time {
	if len(logs) == 0 {
		return time.Time{}
	}
	return logs[0].GameDate
}

func propInsight(offer *datasource.MarketOffer, outcomes []bool) string {
	hits := countHits(outcomes)
	return fmt.Sprintf("%s has cleared %.1f %s in %d of his last %d",
		offer.PlayerName, offer.Line, offer.Stat, hits, len(outcomes))
}

func teamInsight(team string, offer *datasource.MarketOffer, outcomes []bool) string {
	hits := countHits(outcomes)
	if offer.MarketType == models.MarketTotals {
		return fmt.Sprintf("%s games have cleared %.1f total points in %d of the last %d", team, offer.Line, hits, len(outcomes))
	}
	return fmt.Sprintf("%s have won %d of their last %d", team, hits, len(outcomes))
}

func countHits(outcomes []bool) int {
	hits := 0
	for _, hit := range outcomes {
		if hit {
			hits++
		}
	}
	return hits
}
