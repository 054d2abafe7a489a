// Package scheduler drives the periodic weather update runs. Each frequency class has
// its own loop anchored to wall-clock boundaries in a fixed timezone, and its own lock
// so a class never runs twice at once.
package scheduler

import (
	"context"
	"sync"
	"time"

	"weathersub.app/internal/core/notification"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// ErrRunInProgress is returned by RunNow while a run of the same class is executing
var ErrRunInProgress = errors.NewAlreadyExistsError("a run for this frequency is already in progress")

// BatchRunner performs one batch run for a frequency class
type BatchRunner interface {
	SendWeatherUpdates(ctx context.Context, frequency subscription.Frequency) (*notification.BatchResult, error)
}

// Dependencies configures a Scheduler. Now and After default to the real clock.
type Dependencies struct {
	Runner      BatchRunner
	Logger      ports.Logger
	Location    *time.Location
	Frequencies []subscription.Frequency
	Now         func() time.Time
	After       func(time.Duration) <-chan time.Time
}

type Scheduler struct {
	runner      BatchRunner
	logger      ports.Logger
	location    *time.Location
	frequencies []subscription.Frequency
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time
	locks       map[subscription.Frequency]*sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func New(deps Dependencies) (*Scheduler, error) {
	if deps.Runner == nil {
		return nil, errors.NewValidationError("batch runner is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}

	s := &Scheduler{
		runner:      deps.Runner,
		logger:      deps.Logger,
		location:    deps.Location,
		frequencies: deps.Frequencies,
		now:         deps.Now,
		after:       deps.After,
		locks:       make(map[subscription.Frequency]*sync.Mutex),
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if len(s.frequencies) == 0 {
		s.frequencies = subscription.Frequencies
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.after == nil {
		s.after = time.After
	}
	for _, f := range subscription.Frequencies {
		s.locks[f] = &sync.Mutex{}
	}

	return s, nil
}

// NextRun returns the first boundary of the frequency class strictly after now:
// the next top of the hour for hourly, the next local midnight for daily.
func NextRun(frequency subscription.Frequency, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	switch frequency {
	case subscription.FrequencyDaily:
		return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	default:
		// Around a DST fold the local hour is ambiguous, so settle on the earliest
		// hour boundary that is still after now.
		next := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc).Add(time.Hour)
		for !next.After(now) {
			next = next.Add(time.Hour)
		}
		for next.Add(-time.Hour).After(now) {
			next = next.Add(-time.Hour)
		}
		return next
	}
}

// Start launches one loop per frequency class. The loops stop when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, frequency := range s.frequencies {
		s.wg.Add(1)
		go s.loop(ctx, frequency)
	}

	s.logger.Info("Scheduler started",
		ports.F("timezone", s.location.String()),
		ports.F("classes", len(s.frequencies)))
}

// Stop cancels the loops and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunNow executes a run of the class immediately, under the same lock the loop uses
func (s *Scheduler) RunNow(ctx context.Context, frequency subscription.Frequency) (*notification.BatchResult, error) {
	lock, ok := s.locks[frequency]
	if !ok {
		return nil, errors.NewValidationError("invalid frequency")
	}
	if !lock.TryLock() {
		return nil, ErrRunInProgress
	}
	defer lock.Unlock()

	return s.runner.SendWeatherUpdates(ctx, frequency)
}

func (s *Scheduler) loop(ctx context.Context, frequency subscription.Frequency) {
	defer s.wg.Done()

	// last is the boundary that most recently fired. The wall clock may read
	// slightly before it when the timer wakes, so the next boundary is always
	// computed from whichever is later.
	var last time.Time
	for {
		now := s.now()
		from := now
		if last.After(from) {
			from = last
		}
		next := NextRun(frequency, from, s.location)
		s.logger.Debug("Next run scheduled",
			ports.F("frequency", frequency.String()),
			ports.F("at", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
		}

		last = next
		s.runScheduled(ctx, frequency)

		if ctx.Err() != nil {
			return
		}
		if following := NextRun(frequency, next, s.location); !following.After(s.now()) {
			s.logger.Warn("Run overran the next boundary; skipped boundaries are not replayed",
				ports.F("frequency", frequency.String()),
				ports.F("boundary", following.Format(time.RFC3339)))
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context, frequency subscription.Frequency) {
	result, err := s.RunNow(ctx, frequency)
	switch {
	case err == ErrRunInProgress:
		s.logger.Warn("Previous run still in progress, skipping",
			ports.F("frequency", frequency.String()))
	case err != nil:
		s.logger.Error("Scheduled run failed",
			ports.F("frequency", frequency.String()),
			ports.F("error", err))
	default:
		s.logger.Debug("Scheduled run finished",
			ports.F("frequency", frequency.String()),
			ports.F("runID", result.RunID),
			ports.F("sent", result.Sent()),
			ports.F("failed", len(result.Failures())))
	}
}
