// Package main provides the entry point for the recommendation engine daemon.
package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/bot"
	"github.com/expert-sys/positive-edge/internal/cache"
	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/health"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/oddsfeed"
	"github.com/expert-sys/positive-edge/internal/performance"
	"github.com/expert-sys/positive-edge/internal/repository"
	"github.com/expert-sys/positive-edge/internal/scheduler"
	"github.com/expert-sys/positive-edge/internal/service"
)

const (
	settlementInterval  = 5 * time.Minute
	performanceInterval = 15 * time.Minute
	cacheSweepInterval  = 1 * time.Hour
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			stdlog.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			stdlog.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
	}).Info("Positive Edge engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	sessionCache := cache.NewSessionCache(&cfg.Cache)
	persistentStore := cache.NewPersistentStore(db)

	providers, err := datasource.NewProviders(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize data providers")
	}
	if providers.Odds == nil {
		appLog.Fatal("No odds provider configured")
	}

	riskManager := bot.NewRiskManager(&cfg.Engine, repos.Recommendation, appLog)
	circuitBreaker := bot.NewCircuitBreaker(bot.CircuitBreakerConfigFromEngine(&cfg.Engine), appLog)

	engine, err := bot.NewEngine(cfg, repos, providers.Odds, riskManager, circuitBreaker, sessionCache, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create engine")
	}
	if providers.Lineups != nil {
		engine.SetLineupProvider(providers.Lineups)
	}
	engine.SetPersistentStore(persistentStore)

	// Expired durable cache rows are reaped in the background.
	go func() {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := persistentStore.Sweep(ctx)
				if err != nil {
					appLog.WithError(err).Warn("Cache sweep failed")
				} else if removed > 0 {
					appLog.WithField("removed", removed).Debug("Swept expired cache entries")
				}
			}
		}
	}()

	// Scheduled ingestion keeps game logs and team stats fresh.
	ingestionSvc := service.NewIngestionService(providers, repos, sessionCache, appLog)
	sched := scheduler.NewScheduler(ingestionSvc, appLog)
	if err := sched.ScheduleGameLogSync(cfg.DataSources.Schedule.GameLogSync); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule game log sync")
	}
	if err := sched.ScheduleTeamStatsRefresh(cfg.DataSources.Schedule.TeamStatsRefresh); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule team stats refresh")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	var monitor *bot.SettlementMonitor
	if cfg.Features.AutoSettlementEnabled {
		monitor = bot.NewSettlementMonitor(repos.Recommendation, repos.GameLog, riskManager, circuitBreaker, settlementInterval, appLog)
		go func() {
			if err := monitor.Start(ctx); err != nil && err != context.Canceled {
				appLog.WithError(err).Error("Settlement monitor exited")
			}
		}()
	}

	tracker := performance.NewTracker(repos.Recommendation, cfg.Engine.Bankroll, 0, appLog)
	go func() {
		if err := tracker.Start(ctx, performanceInterval); err != nil && err != context.Canceled {
			appLog.WithError(err).Error("Performance tracker exited")
		}
	}()

	var stream *oddsfeed.StreamClient
	if cfg.Features.LiveOddsEnabled {
		stream = oddsfeed.NewStreamClient(&cfg.OddsFeed, appLog)
		stream.AddHandler(func(update oddsfeed.LineUpdate) error {
			appLog.WithFields(logrus.Fields{
				"game_id":     update.GameID,
				"market_type": update.MarketType,
				"line":        update.Line,
				"odds":        update.Odds,
				"suspended":   update.Suspended,
			}).Debug("Line update received")
			return nil
		})
		go func() {
			if err := stream.Run(ctx, nil, cfg.Engine.Markets); err != nil && ctx.Err() == nil {
				appLog.WithError(err).Error("Odds stream exited")
			}
		}()
		defer stream.Close()
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Logger:      appLog,
		DB:          db,
	})
	if stream != nil {
		healthServer.RegisterCheck("odds_stream", func(ctx context.Context) error {
			if !stream.IsConnected() {
				return fmt.Errorf("odds stream disconnected")
			}
			return nil
		})
	}
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	if err := engine.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start engine")
	}
	healthServer.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"markets":         cfg.Engine.Markets,
		"live_odds":       cfg.Features.LiveOddsEnabled,
		"auto_settlement": cfg.Features.AutoSettlementEnabled,
		"team_markets":    cfg.Features.TeamMarketsEnabled,
	}).Info("Engine started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := engine.Stop(); err != nil {
		appLog.WithError(err).Error("Error during engine shutdown")
	}
	if monitor != nil {
		if err := monitor.Stop(); err != nil {
			appLog.WithError(err).Error("Error during settlement monitor shutdown")
		}
	}
	tracker.Stop()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error during metrics server shutdown")
		}
	}

	appLog.Info("Positive Edge engine shut down")
}
