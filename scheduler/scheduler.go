package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/logging"
)

// Task is one run of a scheduled job
type Task func(context.Context)

// Scheduler runs a task at a fixed interval in a background goroutine.
// A panicking run is logged and does not stop later runs.
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	runs    atomic.Int64
	lastRun atomic.Int64 // unix nanos
}

// New creates a new Scheduler instance
func New(name string, interval time.Duration, task Task, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logging.OrNop(logger).With(zap.String("task", name)),
	}
}

// Start begins executing the task at the specified interval.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context, firstRunImmediately bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Debug("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Bool("first_run_immediately", firstRunImmediately),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if firstRunImmediately {
			s.run(ctx)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled task panicked", zap.Any("panic", r))
		}
	}()

	s.lastRun.Store(time.Now().UnixNano())
	s.runs.Add(1)
	s.task(ctx)
}

// Stop terminates the periodic task execution and waits for a running task to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.running = false

	s.logger.Debug("Scheduler stopped", zap.Int64("runs", s.runs.Load()))
}

// IsRunning returns true if the scheduler was started and not stopped
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs returns how many times the task has been started
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// LastRun returns when the task was last started, zero if never
func (s *Scheduler) LastRun() time.Time {
	nanos := s.lastRun.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
