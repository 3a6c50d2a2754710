package scrape

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/model"
)

// Preflight probes the listing URL before the browser launches. An
// unreachable listing is a fatal run error; there is no point paying the
// browser startup cost for a dead origin.
type Preflight interface {
	Check(ctx context.Context, url string) error
}

// OrchestratorConfig parameterizes one end-to-end run.
type OrchestratorConfig struct {
	List ListConfig
	// MaxProfessors truncates the summary list; 0 means no cap.
	MaxProfessors int
	// DelayBase is the politeness delay applied before every item except the
	// first, randomized within ± Jitter.
	DelayBase time.Duration
	Jitter    time.Duration
	// SettleDelay is handed down to the pagination loops.
	SettleDelay time.Duration
}

// Result is everything one run produced, handed to the output stage.
type Result struct {
	// Listing holds the (possibly truncated) summaries the run iterated.
	Listing    []model.ProfessorSummary
	Professors []model.Professor
	// Errors holds one formatted string per professor that failed with an error.
	Errors []string
	// Skipped holds the display name of every professor excluded from the result.
	Skipped []string

	TotalListed      int
	SuccessCount     int
	FailureCount     int
	ReviewsCollected int
	Elapsed          time.Duration
}

// Orchestrator drives the end-to-end run over exactly one browser session.
type Orchestrator struct {
	factory   SessionFactory
	preflight Preflight
	cfg       OrchestratorConfig
	logger    *zap.Logger

	// pause and rng are injectable so tests run instantly and deterministically.
	pause pauseFunc
	rng   *rand.Rand
	now   func() time.Time
}

// NewOrchestrator builds a run driver. preflight may be nil to skip the probe.
func NewOrchestrator(factory SessionFactory, preflight Preflight, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		factory:   factory,
		preflight: preflight,
		cfg:       cfg,
		logger:    logger,
		pause:     timerPause,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// Run executes the whole batch. Per-item failures are absorbed and recorded;
// only session acquisition, the preflight probe, and listing failures are
// fatal. The session is released whether the loop completes or exits early.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := o.now()

	if o.preflight != nil {
		if err := o.preflight.Check(ctx, o.cfg.List.URL); err != nil {
			return nil, fmt.Errorf("listing preflight failed: %w", err)
		}
		o.logger.Info("listing preflight passed", zap.String("url", o.cfg.List.URL))
	}

	session, err := o.factory.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Warn("closing browser session", zap.Error(err))
		}
	}()

	retry := NewRetryer(o.logger)
	retry.pause = o.pause
	lister := NewListScraper(session, o.cfg.List, retry, o.logger)
	lister.pager.pause = o.pause
	reviewer := NewReviewScraper(session, o.cfg.SettleDelay, o.logger)
	reviewer.pager.pause = o.pause
	detailer := NewDetailScraper(session, retry, reviewer, o.logger)

	summaries, err := lister.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("list extraction: %w", err)
	}
	if o.cfg.MaxProfessors > 0 && len(summaries) > o.cfg.MaxProfessors {
		o.logger.Info("truncating professor list",
			zap.Int("listed", len(summaries)),
			zap.Int("cap", o.cfg.MaxProfessors))
		summaries = summaries[:o.cfg.MaxProfessors]
	}

	result := &Result{
		Listing:     summaries,
		Professors:  []model.Professor{},
		Errors:      []string{},
		Skipped:     []string{},
		TotalListed: len(summaries),
	}

	loopStart := o.now()
	for i, summary := range summaries {
		if err := ctx.Err(); err != nil {
			result.Elapsed = o.now().Sub(start)
			return result, fmt.Errorf("run interrupted after %d of %d professors: %w",
				i, len(summaries), err)
		}

		o.logProgress(i, len(summaries), o.now().Sub(loopStart))
		if i > 0 {
			o.pause(ctx, o.politenessDelay())
		}

		professor, err := detailer.ScrapeProfessor(ctx, summary.ProfessorPageURL)
		if err != nil {
			result.FailureCount++
			result.Skipped = append(result.Skipped, summary.ProfessorName)
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s (%s): %v", summary.ProfessorName, summary.ProfessorPageURL, err))
			professorsFailedTotal.Inc()
			o.logger.Warn("professor skipped",
				zap.String("professor", summary.ProfessorName),
				zap.Error(err))
			continue
		}

		result.Professors = append(result.Professors, *professor)
		result.SuccessCount++
		result.ReviewsCollected += len(professor.Reviews)
		professorsScrapedTotal.Inc()
		reviewsCollectedTotal.Add(float64(len(professor.Reviews)))
	}

	result.Elapsed = o.now().Sub(start)
	o.logSummary(result)
	return result, nil
}

// politenessDelay returns the base delay shifted by a uniform draw from the
// jitter window [-Jitter, +Jitter].
func (o *Orchestrator) politenessDelay() time.Duration {
	if o.cfg.Jitter <= 0 {
		return o.cfg.DelayBase
	}
	offset := time.Duration((o.rng.Float64()*2 - 1) * float64(o.cfg.Jitter))
	d := o.cfg.DelayBase + offset
	if d < 0 {
		d = 0
	}
	return d
}

// logProgress reports percent complete, elapsed time, and an ETA from the
// running average time per item.
func (o *Orchestrator) logProgress(done, total int, elapsed time.Duration) {
	if total == 0 {
		return
	}
	fields := []zap.Field{
		zap.Int("item", done+1),
		zap.Int("total", total),
		zap.Float64("percent", float64(done)/float64(total)*100),
		zap.Duration("elapsed", elapsed.Round(time.Second)),
	}
	if done > 0 {
		perItem := elapsed / time.Duration(done)
		eta := perItem * time.Duration(total-done)
		fields = append(fields, zap.Duration("eta", eta.Round(time.Second)))
	}
	o.logger.Info("scraping professor", fields...)
}

func (o *Orchestrator) logSummary(r *Result) {
	average := time.Duration(0)
	if r.TotalListed > 0 {
		average = r.Elapsed / time.Duration(r.TotalListed)
	}
	o.logger.Info("run complete",
		zap.Int("professors_listed", r.TotalListed),
		zap.Int("scraped", r.SuccessCount),
		zap.Int("failed", r.FailureCount),
		zap.Int("reviews_collected", r.ReviewsCollected),
		zap.Duration("total_time", r.Elapsed.Round(time.Second)),
		zap.Duration("avg_time_per_professor", average.Round(time.Millisecond)),
	)
}
