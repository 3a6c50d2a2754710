// Package preflight probes the listing origin over plain HTTP before the
// browser launches. A dead origin fails the run in milliseconds instead of
// after a Chrome startup.
package preflight

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls the probe.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Checker performs a single GET against the target URL with a real user
// agent and reports whether the origin answered with a usable status.
type Checker struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{cfg: cfg, logger: logger}
}

// Check fetches url once. Any transport error or a 4xx/5xx status is a
// failure. The response body is discarded; only reachability matters — the
// real content is rendered in the browser.
func (c *Checker) Check(ctx context.Context, url string) error {
	collector := colly.NewCollector(colly.Async(false))
	collector.IgnoreRobotsTxt = false
	collector.SetRequestTimeout(c.cfg.Timeout)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}

	var (
		status   int
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
			fetchErr = ctx.Err()
		default:
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		fetchErr = err
	})

	start := time.Now()
	if err := collector.Visit(url); err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return fmt.Errorf("probe %s: %w", url, fetchErr)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("probe %s: status %d", url, status)
	}
	c.logger.Debug("origin reachable",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
