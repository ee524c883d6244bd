// Package scheduler runs named tasks on fixed intervals. Each task has a
// running token: an invocation that finds the task still running is skipped,
// never queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/user/tariffs-service/pkg/metrics"
)

var (
	ErrTaskBusy      = errors.New("task is already running")
	ErrUnknownTask   = errors.New("unknown task")
	ErrNotStarted    = errors.New("scheduler is not running")
	ErrAlreadyExists = errors.New("task already registered")
)

// TaskFunc is the unit of scheduled work.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	running  atomic.Bool
}

// TaskInfo describes a registered task.
type TaskInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
}

type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	order   []string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:   make(map[string]*task),
		metrics: m,
		logger:  logger.Named("scheduler"),
	}
}

// Register adds a task. It must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return fmt.Errorf("task %s: scheduler already started", name)
	}
	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("task %s: %w", name, ErrAlreadyExists)
	}
	s.tasks[name] = &task{name: name, interval: interval, fn: fn}
	s.order = append(s.order, name)
	return nil
}

// Start launches one ticker per task. Tasks receive a context derived from
// ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, name := range s.order {
		t := s.tasks[name]
		s.wg.Add(1)
		go s.loop(t)
		s.logger.Info("task scheduled", zap.String("task", name), zap.Duration("interval", t.interval))
	}
}

func (s *Scheduler) loop(t *task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			_ = s.dispatch(t)
		}
	}
}

// Trigger runs the named task now, in the background. It returns ErrTaskBusy
// when the task is already running.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	started := s.ctx != nil && s.ctx.Err() == nil
	t, ok := s.tasks[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if !started {
		return ErrNotStarted
	}
	return s.dispatch(t)
}

func (s *Scheduler) dispatch(t *task) error {
	if !t.running.CompareAndSwap(false, true) {
		s.logger.Warn("task skipped because previous run still active", zap.String("task", t.name))
		s.metrics.SchedulerSkippedTotal.WithLabelValues(t.name).Inc()
		return ErrTaskBusy
	}

	// Add under the lock so Stop never waits concurrently with a new Add.
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		t.running.Store(false)
		return ErrNotStarted
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.execute(t)
	}()
	return nil
}

func (s *Scheduler) execute(t *task) {
	defer t.running.Store(false)

	status := "failure"
	defer func() {
		if p := recover(); p != nil {
			status = "panic"
			s.logger.Error("task panicked", zap.String("task", t.name), zap.Any("panic", p))
		}
		s.metrics.SchedulerRunsTotal.WithLabelValues(t.name, status).Inc()
	}()

	start := time.Now()
	if err := t.fn(s.ctx); err != nil {
		s.logger.Error("task failed", zap.String("task", t.name), zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	status = "success"
	s.logger.Info("task finished", zap.String("task", t.name), zap.Duration("duration", time.Since(start)))
}

// Tasks lists registered tasks in registration order.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.order))
	for _, name := range s.order {
		t := s.tasks[name]
		out = append(out, TaskInfo{Name: name, Interval: t.interval, Running: t.running.Load()})
	}
	return out
}

// Stop cancels the task context, stops the tickers and waits for in-flight
// tasks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	if cancel != nil {
		cancel()
	}
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running tasks: %w", ctx.Err())
	}
}
