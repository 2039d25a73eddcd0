// Package service implements the data ingestion workflow: fetch from
// providers, normalize, validate, persist, and invalidate stale cache
// entries.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/cache"
	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

const defaultBatchSize = 100

// IngestionService moves game logs and team stats from providers into the
// database. Records that fail validation are dropped with a counter bump
// rather than failing the run; a provider fetch failure fails the run.
type IngestionService struct {
	gameLogs     datasource.GameLogProvider
	teamStats    datasource.TeamStatsProvider
	gameLogRepo  repository.GameLogRepository
	teamStatRepo repository.TeamStatsRepository
	validator    *DataValidator
	normalizer   *DataNormalizer
	sessionCache *cache.SessionCache
	engineLog    *logger.EngineLogger
	logger       *logrus.Logger
	batchSize    int
}

// NewIngestionService creates a new ingestion service. sessionCache may be
// nil when running without the in-memory layer.
func NewIngestionService(
	providers *datasource.Providers,
	repos *repository.Repositories,
	sessionCache *cache.SessionCache,
	baseLogger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		gameLogs:     providers.GameLogs,
		teamStats:    providers.TeamStats,
		gameLogRepo:  repos.GameLog,
		teamStatRepo: repos.TeamStats,
		validator:    NewDataValidator(baseLogger),
		normalizer:   NewDataNormalizer(baseLogger),
		sessionCache: sessionCache,
		engineLog:    logger.NewEngineLogger(baseLogger),
		logger:       baseLogger,
		batchSize:    defaultBatchSize,
	}
}

// SyncGameLogs ingests every player line for games on the given date.
func (s *IngestionService) SyncGameLogs(ctx context.Context, date time.Time) (*IngestionReport, error) {
	report := NewIngestionReport()
	start := time.Now()

	logs, err := s.gameLogs.FetchGameLogsByDate(ctx, date)
	if err != nil {
		report.RecordError()
		metrics.RecordDataSourceRequest(s.gameLogs.Name(), "error")
		s.engineLog.LogDataRefresh(s.gameLogs.Name(), 0, time.Since(start), err)
		return report, fmt.Errorf("failed to fetch game logs: %w", err)
	}
	metrics.RecordDataSourceRequest(s.gameLogs.Name(), "success")
	report.Fetched = len(logs)

	storable := make([]*models.GameLog, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		if err := s.normalizer.NormalizeGameLog(log); err != nil {
			report.RecordError()
			continue
		}
		if problems := s.validator.ValidateGameLog(log); len(problems) > 0 {
			report.RecordValidationError()
			s.logger.WithFields(logrus.Fields{
				"player_id": log.PlayerID,
				"game_date": log.GameDate.Format("2006-01-02"),
				"problems":  problems,
			}).Warn("Dropping invalid game log")
			continue
		}
		storable = append(storable, log)
	}

	for i := 0; i < len(storable); i += s.batchSize {
		end := i + s.batchSize
		if end > len(storable) {
			end = len(storable)
		}

		batch := storable[i:end]
		if err := s.gameLogRepo.InsertBatch(ctx, batch); err != nil {
			report.RecordError()
			s.logger.WithError(err).Error("Failed to store game log batch")
			continue
		}
		report.RecordStored(len(batch))
		s.invalidatePlayers(batch)
	}

	report.Finish()
	metrics.DataRefreshDuration.Observe(report.Duration.Seconds())
	s.engineLog.LogDataRefresh(s.gameLogs.Name(), report.Stored, report.Duration, nil)

	return report, nil
}

// BackfillPlayer ingests a player's recent history, skipping games already
// stored. Used when a player first appears on a slate.
func (s *IngestionService) BackfillPlayer(ctx context.Context, playerID string, limit int) (*IngestionReport, error) {
	report := NewIngestionReport()

	logs, err := s.gameLogs.FetchPlayerGameLogs(ctx, playerID, limit)
	if err != nil {
		report.RecordError()
		metrics.RecordDataSourceRequest(s.gameLogs.Name(), "error")
		return report, fmt.Errorf("failed to fetch player history: %w", err)
	}
	metrics.RecordDataSourceRequest(s.gameLogs.Name(), "success")
	report.Fetched = len(logs)

	latest, err := s.gameLogRepo.GetLatestGameDate(ctx, playerID)
	if err != nil {
		// No stored history means everything fetched is new.
		latest = time.Time{}
	}

	storable := make([]*models.GameLog, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		if err := s.normalizer.NormalizeGameLog(log); err != nil {
			report.RecordError()
			continue
		}
		if !latest.IsZero() && !log.GameDate.After(latest) {
			report.RecordSkipped()
			continue
		}
		if problems := s.validator.ValidateGameLog(log); len(problems) > 0 {
			report.RecordValidationError()
			continue
		}
		storable = append(storable, log)
	}

	if err := s.gameLogRepo.InsertBatch(ctx, storable); err != nil {
		report.RecordError()
		return report, fmt.Errorf("failed to store player history: %w", err)
	}
	report.RecordStored(len(storable))
	s.invalidatePlayers(storable)

	report.Finish()
	return report, nil
}

// RefreshTeamStats ingests the current season team averages for all teams.
func (s *IngestionService) RefreshTeamStats(ctx context.Context) (*IngestionReport, error) {
	report := NewIngestionReport()
	start := time.Now()

	stats, err := s.teamStats.FetchTeamStats(ctx)
	if err != nil {
		report.RecordError()
		metrics.RecordDataSourceRequest(s.teamStats.Name(), "error")
		s.engineLog.LogDataRefresh(s.teamStats.Name(), 0, time.Since(start), err)
		return report, fmt.Errorf("failed to fetch team stats: %w", err)
	}
	metrics.RecordDataSourceRequest(s.teamStats.Name(), "success")
	report.Fetched = len(stats)

	for _, ts := range stats {
		if err := s.normalizer.NormalizeTeamStats(ts); err != nil {
			report.RecordError()
			continue
		}
		if problems := s.validator.ValidateTeamStats(ts); len(problems) > 0 {
			report.RecordValidationError()
			s.logger.WithFields(logrus.Fields{
				"team":     ts.Team,
				"problems": problems,
			}).Warn("Dropping invalid team stats")
			continue
		}
		if err := s.teamStatRepo.Upsert(ctx, ts); err != nil {
			report.RecordError()
			s.logger.WithError(err).WithField("team", ts.Team).Error("Failed to upsert team stats")
			continue
		}
		report.RecordStored(1)
	}

	report.Finish()
	metrics.DataRefreshDuration.Observe(report.Duration.Seconds())
	s.engineLog.LogDataRefresh(s.teamStats.Name(), report.Stored, report.Duration, nil)

	return report, nil
}

// invalidatePlayers drops session cache entries for players whose logs just
// changed so the next projection sees fresh data.
func (s *IngestionService) invalidatePlayers(logs []*models.GameLog) {
	if s.sessionCache == nil {
		return
	}

	seen := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		if _, ok := seen[log.PlayerID]; ok {
			continue
		}
		seen[log.PlayerID] = struct{}{}
		s.sessionCache.InvalidatePlayer(log.PlayerID)
	}
}
