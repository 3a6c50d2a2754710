package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxAttempts    = 3
	defaultBackoffBase    = 1 * time.Second
	defaultMissRetryDelay = 2 * time.Second
)

// pauseFunc blocks for the given duration or until the context finishes.
// Injected so tests run without real sleeps.
type pauseFunc func(ctx context.Context, d time.Duration)

func timerPause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Retryer is the shared bounded-loop retry primitive. Every caller that used
// to duplicate retry logic per field goes through it instead.
type Retryer struct {
	maxAttempts    int
	backoffBase    time.Duration
	missRetryDelay time.Duration
	pause          pauseFunc
	logger         *zap.Logger
}

// NewRetryer builds a Retryer with the standard schedule: three attempts,
// waiting 1s, 2s, 4s between them.
func NewRetryer(logger *zap.Logger) *Retryer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{
		maxAttempts:    defaultMaxAttempts,
		backoffBase:    defaultBackoffBase,
		missRetryDelay: defaultMissRetryDelay,
		pause:          timerPause,
		logger:         logger,
	}
}

// Do invokes op up to the attempt ceiling, backing off 2^attempt seconds
// between attempts. All error kinds are retried: at this layer a slow render
// is indistinguishable from a dead page. The last error is returned unchanged
// once attempts are exhausted. Context cancellation short-circuits.
func (r *Retryer) Do(ctx context.Context, desc string, op func(context.Context) error) error {
	var last error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return fmt.Errorf("%s canceled: %w", desc, err)
		}
		last = op(ctx)
		if last == nil {
			return nil
		}
		retriesTotal.Inc()
		wait := r.backoffBase << attempt
		if attempt < r.maxAttempts-1 {
			r.logger.Warn("attempt failed, backing off",
				zap.String("operation", desc),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", r.maxAttempts),
				zap.Duration("wait", wait),
				zap.Error(last),
			)
			r.pause(ctx, wait)
		} else {
			r.logger.Error("all attempts exhausted",
				zap.String("operation", desc),
				zap.Int("max_attempts", r.maxAttempts),
				zap.Error(last),
			)
		}
	}
	return last
}

// FindOnceRetry runs find once and, on a not-found miss, waits two seconds
// and retries exactly once. A second miss reports ok=false instead of an
// error; field-level misses never propagate.
func (r *Retryer) FindOnceRetry(ctx context.Context, desc string, find func(context.Context) (Element, error)) (Element, bool) {
	el, err := find(ctx)
	if err == nil {
		return el, true
	}
	if !errors.Is(err, ErrNoSuchElement) {
		LogError(r.logger, err, desc)
		return nil, false
	}
	r.logger.Warn("element not found on first attempt, retrying",
		zap.String("locator", desc))
	r.pause(ctx, r.missRetryDelay)

	el, err = find(ctx)
	if err != nil {
		r.logger.Warn("element not found after retry",
			zap.String("locator", desc),
			zap.Error(err))
		return nil, false
	}
	return el, true
}

// LogError records the error kind, message, and a human-readable context
// string. It never alters control flow.
func LogError(logger *zap.Logger, err error, context string) {
	if err == nil {
		return
	}
	logger.Error("error encountered",
		zap.String("context", context),
		zap.String("kind", fmt.Sprintf("%T", err)),
		zap.Error(err),
	)
}
