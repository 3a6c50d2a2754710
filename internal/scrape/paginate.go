package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// paginationState is the terminal state of a pagination-exhaustion loop.
type paginationState int

const (
	// pageExhausted: the load-more control disappeared; the success path.
	pageExhausted paginationState = iota
	// pageLimitReached: the activation ceiling was hit; a warning, not an error.
	pageLimitReached
	// pageAborted: too many consecutive activation failures.
	pageAborted
)

func (s paginationState) String() string {
	switch s {
	case pageExhausted:
		return "exhausted"
	case pageLimitReached:
		return "limit-reached"
	case pageAborted:
		return "aborted-on-error"
	default:
		return "unknown"
	}
}

// paginatorConfig controls one pagination-exhaustion loop.
type paginatorConfig struct {
	// controls are candidate locators for the load-more control, tried in order.
	controls []Locator
	// maxActivations caps the loop; 0 means unbounded (termination driven
	// entirely by control presence).
	maxActivations int
	// maxConsecutiveFailures aborts the loop after this many back-to-back
	// failed activations. Any success resets the counter.
	maxConsecutiveFailures int
	// scriptedFallback enables a scripted click when the native click throws.
	scriptedFallback bool
	// settleDelay follows every successful activation, a rate-limit courtesy.
	settleDelay time.Duration
	// scrollPause follows the pre-click scroll-into-view.
	scrollPause time.Duration
	// failureDelay follows a failed activation before the next iteration.
	failureDelay time.Duration
}

// paginationResult reports how the loop ended.
type paginationResult struct {
	activations int
	state       paginationState
}

// paginator repeatedly triggers a load-more control until it is gone. The
// termination policy is an explicit state machine so it is testable without
// a live browser.
type paginator struct {
	cfg    paginatorConfig
	pause  pauseFunc
	logger *zap.Logger
}

func newPaginator(cfg paginatorConfig, logger *zap.Logger) *paginator {
	if cfg.scrollPause == 0 {
		cfg.scrollPause = 500 * time.Millisecond
	}
	if cfg.failureDelay == 0 {
		cfg.failureDelay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paginator{cfg: cfg, pause: timerPause, logger: logger}
}

// run drives the loop against root until a terminal state is reached.
func (p *paginator) run(ctx context.Context, root Finder) paginationResult {
	activations := 0
	consecutiveFailures := 0

	for {
		if ctx.Err() != nil {
			p.logger.Warn("pagination interrupted", zap.Int("activations", activations))
			return paginationResult{activations: activations, state: pageAborted}
		}
		if p.cfg.maxActivations > 0 && activations >= p.cfg.maxActivations {
			p.logger.Warn("pagination activation ceiling reached, some items may not be loaded",
				zap.Int("ceiling", p.cfg.maxActivations))
			return paginationResult{activations: activations, state: pageLimitReached}
		}

		control, ok := p.locateControl(ctx, root)
		if !ok {
			p.logger.Info("load-more control absent, pagination exhausted",
				zap.Int("activations", activations))
			return paginationResult{activations: activations, state: pageExhausted}
		}

		if err := control.ScrollIntoView(ctx); err != nil {
			p.logger.Debug("scroll to control failed", zap.Error(err))
		}
		p.pause(ctx, p.cfg.scrollPause)

		if p.activate(ctx, control) {
			activations++
			consecutiveFailures = 0
			paginationClicksTotal.Inc()
			p.pause(ctx, p.cfg.settleDelay)
			continue
		}

		consecutiveFailures++
		if p.cfg.maxConsecutiveFailures > 0 && consecutiveFailures >= p.cfg.maxConsecutiveFailures {
			p.logger.Error("too many consecutive activation failures, stopping pagination",
				zap.Int("consecutive_failures", consecutiveFailures),
				zap.Int("activations", activations))
			return paginationResult{activations: activations, state: pageAborted}
		}
		p.pause(ctx, p.cfg.failureDelay)
	}
}

// locateControl tries each candidate locator in order; the first visible
// match wins.
func (p *paginator) locateControl(ctx context.Context, root Finder) (Element, bool) {
	for _, loc := range p.cfg.controls {
		el, err := root.Find(ctx, loc)
		if err != nil {
			continue
		}
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			continue
		}
		return el, true
	}
	return nil, false
}

// activate clicks the control, falling back to a scripted click when the
// native path throws and the fallback is enabled.
func (p *paginator) activate(ctx context.Context, control Element) bool {
	err := control.Click(ctx)
	if err == nil {
		return true
	}
	p.logger.Warn("native click failed", zap.Error(err))
	if !p.cfg.scriptedFallback {
		return false
	}
	if err := control.ClickScript(ctx); err != nil {
		LogError(p.logger, err, "scripted click on load-more control")
		return false
	}
	p.logger.Debug("scripted click succeeded after native failure")
	return true
}
