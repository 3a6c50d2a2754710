package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/browser"
	"github.com/campusmetrics/profscraper/internal/config"
	"github.com/campusmetrics/profscraper/internal/logging"
	"github.com/campusmetrics/profscraper/internal/output"
	"github.com/campusmetrics/profscraper/internal/preflight"
	"github.com/campusmetrics/profscraper/internal/runstore"
	"github.com/campusmetrics/profscraper/internal/scrape"
	"github.com/campusmetrics/profscraper/internal/server"
)

type scrapeFlags struct {
	headless      bool
	outputFile    string
	delaySeconds  float64
	maxProfessors int
}

// newScrapeCmd creates the 'scrape' subcommand, the end-to-end batch run.
func newScrapeCmd() *cobra.Command {
	flags := &scrapeFlags{}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs the full listing-to-JSON scraping batch",
		Long: `Navigates the configured listing page, enumerates every professor,
scrapes each detail page including all reviews, and writes the records
plus a run summary to JSON files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.headless, "headless", true, "run the browser in headless mode")
	cmd.Flags().StringVar(&flags.outputFile, "output", "usf_professors.json", "output file path")
	cmd.Flags().Float64Var(&flags.delaySeconds, "delay", 1.5, "delay between requests in seconds")
	cmd.Flags().IntVar(&flags.maxProfessors, "max-professors", 0, "maximum number of professors to scrape (0 = all)")
	return cmd
}

func runScrape(cmd *cobra.Command, flags *scrapeFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cmd, flags, &cfg)

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx := cmd.Context()
	logger.Info("starting professor scraper",
		zap.String("listing_url", cfg.Scraper.ListingURL),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Float64("delay_seconds", cfg.Scraper.DelaySeconds),
		zap.Int("max_professors", cfg.Scraper.MaxProfessors),
		zap.String("output", cfg.Output.File),
	)

	stopMetrics := startMetrics(cfg, logger)
	defer stopMetrics()

	factory := browser.NewFactory(browser.Config{
		Headless:    cfg.Browser.Headless,
		UserAgent:   cfg.Browser.UserAgent,
		NavTimeout:  time.Duration(cfg.Browser.NavTimeoutSec) * time.Second,
		WaitTimeout: time.Duration(cfg.Browser.WaitTimeoutSec) * time.Second,
		DomainQPS:   cfg.Browser.DomainQPS,
	}, logger)
	defer factory.Close()

	var checker scrape.Preflight
	if !cfg.Browser.PreflightDisabled {
		checker = preflight.New(preflight.Config{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   time.Duration(cfg.Browser.PreflightTimeout) * time.Second,
		}, logger)
	}

	orchestrator := scrape.NewOrchestrator(factory, checker, scrape.OrchestratorConfig{
		List: scrape.ListConfig{
			URL:               cfg.Scraper.ListingURL,
			UniversityDefault: cfg.Scraper.UniversityDefault,
			SettleDelay:       cfg.Settle(),
		},
		MaxProfessors: cfg.Scraper.MaxProfessors,
		DelayBase:     cfg.Delay(),
		Jitter:        cfg.Jitter(),
		SettleDelay:   cfg.Settle(),
	}, logger)

	started := time.Now()
	result, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("scraping run: %w", err)
	}

	return persistResults(ctx, cfg, result, started, logger)
}

// applyFlagOverrides lets explicit CLI flags win over file/env configuration.
func applyFlagOverrides(cmd *cobra.Command, flags *scrapeFlags, cfg *config.Config) {
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = flags.headless
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File = flags.outputFile
	}
	if cmd.Flags().Changed("delay") {
		cfg.Scraper.DelaySeconds = flags.delaySeconds
	}
	if cmd.Flags().Changed("max-professors") {
		cfg.Scraper.MaxProfessors = flags.maxProfessors
	}
}

func startMetrics(cfg config.Config, logger *zap.Logger) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}
	srv := server.New(cfg.Metrics.Port, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown", zap.Error(err))
		}
	}
}

func persistResults(ctx context.Context, cfg config.Config, result *scrape.Result, started time.Time, logger *zap.Logger) error {
	writer := output.NewWriter(logger)

	if cfg.Output.SaveListing && cfg.Output.ListingFile != "" {
		if err := writer.SaveListing(result.Listing, cfg.Output.ListingFile); err != nil {
			logger.Warn("saving listing artifact", zap.Error(err))
		}
	}

	summary := output.BuildSummary(result.Professors, result.Errors, result.Skipped)
	writer.LogSummary(summary)
	if err := writer.SaveSummary(summary, cfg.Output.SummaryFile); err != nil {
		logger.Error("saving run summary", zap.Error(err))
	}

	if cfg.DB.DSN != "" {
		saveRunRecord(ctx, cfg, result, summary, started, logger)
	}

	err := writer.SaveProfessors(result.Professors, cfg.Output.File)
	if errors.Is(err, output.ErrNoRecords) {
		return fmt.Errorf("run produced no professor records")
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("scraping finished",
		zap.Int("professors", len(result.Professors)),
		zap.Int("reviews", result.ReviewsCollected),
		zap.Duration("elapsed", result.Elapsed.Round(time.Second)),
		zap.String("output", cfg.Output.File),
	)
	return nil
}

func saveRunRecord(ctx context.Context, cfg config.Config, result *scrape.Result, summary output.Summary, started time.Time, logger *zap.Logger) {
	store, err := runstore.New(ctx, runstore.Config{DSN: cfg.DB.DSN})
	if err != nil {
		logger.Warn("run history store unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	record := runstore.RunRecord{
		ID:                runstore.NewRunID(),
		ListingURL:        cfg.Scraper.ListingURL,
		StartedAt:         started,
		FinishedAt:        started.Add(result.Elapsed),
		ProfessorsScraped: result.SuccessCount,
		ProfessorsSkipped: result.FailureCount,
		ReviewsCollected:  result.ReviewsCollected,
		OutputFile:        cfg.Output.File,
		Summary:           summary,
	}
	if err := store.SaveRun(ctx, record); err != nil {
		logger.Warn("saving run record", zap.Error(err))
		return
	}
	logger.Info("run record saved", zap.String("run_id", record.ID))
}
