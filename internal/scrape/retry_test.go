package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRetryer(rec *pauseRecorder) *Retryer {
	r := NewRetryer(zap.NewNop())
	r.pause = rec.pause
	return r
}

func TestRetryerDoSucceedsAfterTransientFailures(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	calls := 0
	err := r.Do(context.Background(), "flaky op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Backoff doubles per attempt: 1s after the first failure, 2s after the second.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, rec.waits)
}

func TestRetryerDoReturnsLastErrorUnchanged(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	sentinel := errors.New("page is gone")
	calls := 0
	err := r.Do(context.Background(), "doomed op", func(context.Context) error {
		calls++
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, sentinel, err, "last error must come back unwrapped")
	assert.Equal(t, 3, calls)
}

func TestRetryerDoStopsOnCanceledContext(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "op", func(context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestFindOnceRetryRecoversOnSecondAttempt(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	el := newFakeElement("hello")
	calls := 0
	got, ok := r.FindOnceRetry(context.Background(), "greeting", func(context.Context) (Element, error) {
		calls++
		if calls == 1 {
			return nil, ErrNoSuchElement
		}
		return el, nil
	})

	require.True(t, ok)
	assert.Same(t, Element(el), got)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.waits)
}

func TestFindOnceRetryGivesUpAfterSecondMiss(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	calls := 0
	_, ok := r.FindOnceRetry(context.Background(), "missing", func(context.Context) (Element, error) {
		calls++
		return nil, ErrNoSuchElement
	})

	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestFindOnceRetryDoesNotRetryHardErrors(t *testing.T) {
	rec := &pauseRecorder{}
	r := newTestRetryer(rec)

	calls := 0
	_, ok := r.FindOnceRetry(context.Background(), "broken", func(context.Context) (Element, error) {
		calls++
		return nil, errors.New("session died")
	})

	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.waits)
}
