// Package main provides a one-shot CLI that runs a single recommendation
// cycle for a slate date and prints the surfaced bets.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/expert-sys/positive-edge/internal/bot"
	"github.com/expert-sys/positive-edge/internal/cache"
	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/database"
	"github.com/expert-sys/positive-edge/internal/datasource"
	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/repository"
)

var (
	configPath string
	dateStr    string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run a single recommendation cycle for a slate date",
		Long: "Fetches the priced markets for the given date, runs the projection " +
			"and validation pipeline, persists the surfaced recommendations, and " +
			"prints them to stdout.",
		RunE: runRecommend,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to configuration file")
	rootCmd.Flags().StringVarP(&dateStr, "date", "d", "", "slate date (YYYY-MM-DD), defaults to today")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "cycle timeout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	providers, err := datasource.NewProviders(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize data providers: %w", err)
	}
	if providers.Odds == nil {
		return fmt.Errorf("no odds provider configured")
	}

	riskManager := bot.NewRiskManager(&cfg.Engine, repos.Recommendation, appLog)
	circuitBreaker := bot.NewCircuitBreaker(bot.CircuitBreakerConfigFromEngine(&cfg.Engine), appLog)
	sessionCache := cache.NewSessionCache(&cfg.Cache)

	engine, err := bot.NewEngine(cfg, repos, providers.Odds, riskManager, circuitBreaker, sessionCache, appLog)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if providers.Lineups != nil {
		engine.SetLineupProvider(providers.Lineups)
	}
	// One-shot runs lean on the durable layer; the session cache starts cold
	// on every invocation.
	engine.SetPersistentStore(cache.NewPersistentStore(db))

	recs, err := engine.RunCycle(ctx, date)
	if err != nil {
		return fmt.Errorf("recommendation cycle failed: %w", err)
	}

	if len(recs) == 0 {
		fmt.Printf("No recommendations for %s\n", date.Format("2006-01-02"))
		return nil
	}

	fmt.Printf("Recommendations for %s:\n\n", date.Format("2006-01-02"))
	for i, rec := range recs {
		fmt.Printf("%d. [%s] %s\n", i+1, rec.Tier, describeBet(rec))
		fmt.Printf("   prob %.1f%%  conf %.0f  odds %.2f  ev/100 %+.1f  stake %.2f\n",
			rec.Probability*100, rec.Confidence, rec.Odds, rec.EV*100, rec.Stake)
	}

	return nil
}

func describeBet(rec *models.Recommendation) string {
	switch rec.MarketType {
	case models.MarketPlayerProp:
		return fmt.Sprintf("%s %s %.1f %s (%s vs %s)",
			rec.PlayerName, rec.Selection, rec.Line, rec.Stat, rec.Team, rec.Opponent)
	case models.MarketTotals:
		return fmt.Sprintf("%s vs %s total %s %.1f", rec.Team, rec.Opponent, rec.Selection, rec.Line)
	default:
		return fmt.Sprintf("%s vs %s %s", rec.Team, rec.Opponent, rec.Selection)
	}
}
