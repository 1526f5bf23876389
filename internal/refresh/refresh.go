// Package refresh keeps the draw cache warm by running a job on a cron
// schedule so that request paths rarely pay for an upstream sweep.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidSchedule = errors.New("refresh: invalid schedule")

// Job is one refresh run.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. Runs never overlap; a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	runs    int
}

// New parses spec (standard five-field cron or a descriptor such as
// "@every 1m") and returns a stopped scheduler. timeout bounds a single run;
// zero means no bound.
func New(spec string, timeout time.Duration, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", ErrInvalidSchedule)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(),
		job:     job,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() { s.RunNow(s.ctx) }))
	return s, nil
}

// Start begins ticking in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("refresh scheduler started", "next", s.Next())
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the schedule, cancels an in-flight run and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs the job synchronously unless a run is already in progress,
// in which case it returns false without running.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Debug("refresh skipped, previous run still in progress")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.runs++
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		slog.Warn("refresh failed", "err", err, "elapsed", time.Since(start))
		return true
	}
	slog.Debug("refresh completed", "elapsed", time.Since(start))
	return true
}

// Runs reports how many runs have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
