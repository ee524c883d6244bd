package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/tariffs-service/pkg/metrics"
)

func newTestScheduler(t *testing.T) (*Scheduler, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewNop()
	s := New(m, zaptest.NewLogger(t))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s, m
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("refreshPipeline", time.Hour, noop))
	assert.ErrorIs(t, s.Register("refreshPipeline", time.Hour, noop), ErrAlreadyExists)
	assert.Error(t, s.Register("bad", 0, noop))

	s.Start(context.Background())
	assert.Error(t, s.Register("late", time.Hour, noop))
}

func TestTriggerBeforeStartAndUnknown(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.Register("a", time.Hour, func(context.Context) error { return nil }))

	assert.ErrorIs(t, s.Trigger("a"), ErrNotStarted)

	s.Start(context.Background())
	assert.ErrorIs(t, s.Trigger("missing"), ErrUnknownTask)
}

func TestSkipIfBusy(t *testing.T) {
	s, m := newTestScheduler(t)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var runs atomic.Int32

	require.NoError(t, s.Register("refreshPipeline", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		entered <- struct{}{}
		<-release
		return nil
	}))
	s.Start(context.Background())

	require.NoError(t, s.Trigger("refreshPipeline"))
	<-entered

	assert.ErrorIs(t, s.Trigger("refreshPipeline"), ErrTaskBusy)
	assert.ErrorIs(t, s.Trigger("refreshPipeline"), ErrTaskBusy)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SchedulerSkippedTotal.WithLabelValues("refreshPipeline")))
	assert.True(t, s.Tasks()[0].Running)

	close(release)
	require.Eventually(t, func() bool { return !s.Tasks()[0].Running }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SchedulerRunsTotal.WithLabelValues("refreshPipeline", "success")))
}

func TestTokenReleasedOnFailureAndPanic(t *testing.T) {
	s, m := newTestScheduler(t)
	var calls atomic.Int32

	require.NoError(t, s.Register("flaky", time.Hour, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("db down")
		}
		panic("nil map")
	}))
	s.Start(context.Background())

	require.NoError(t, s.Trigger("flaky"))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SchedulerRunsTotal.WithLabelValues("flaky", "failure")) == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Trigger("flaky") == nil }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SchedulerRunsTotal.WithLabelValues("flaky", "panic")) == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Tasks()[0].Running }, time.Second, 5*time.Millisecond)
}

func TestTickerRunsTask(t *testing.T) {
	s, _ := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Register("cleanupRawFiles", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start(context.Background())

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStopCancelsAndWaits(t *testing.T) {
	s, _ := newTestScheduler(t)
	entered := make(chan struct{})
	var finished atomic.Bool

	require.NoError(t, s.Register("pruneTariffsBox", time.Hour, func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}))
	s.Start(context.Background())
	require.NoError(t, s.Trigger("pruneTariffsBox"))
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, finished.Load())
	assert.ErrorIs(t, s.Trigger("pruneTariffsBox"), ErrNotStarted)
}
