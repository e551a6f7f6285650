// Package scheduler fires named callbacks on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
)

var _ ports.Scheduler = (*Scheduler)(nil)

// Scheduler runs each registered alarm on its own goroutine. Runs of the same alarm never overlap;
// a tick that arrives while the callback is still running is dropped.
type Scheduler struct {
	logger ports.Logger

	mu      sync.Mutex
	alarms  map[string]*alarm
	running sync.WaitGroup
	stopped bool
}

type alarm struct {
	interval time.Duration
	cancel   context.CancelFunc
}

// NewScheduler creates a Scheduler with no registrations.
func NewScheduler(logger ports.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		alarms: make(map[string]*alarm),
	}
}

// Register schedules fn every interval under name, replacing any prior registration of name.
// The first run happens one interval after registration. Non-positive intervals are ignored.
func (s *Scheduler) Register(name string, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		s.logger.Warn("alarm not scheduled, interval must be positive", "alarm", name, "interval", interval.String())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.cancelLocked(name)

	ctx, cancel := context.WithCancel(context.Background())
	s.alarms[name] = &alarm{interval: interval, cancel: cancel}
	s.running.Go(func() {
		s.loop(ctx, name, interval, fn)
	})
	s.logger.Debug("alarm scheduled", "alarm", name, "interval", interval.String())
}

// Cancel removes the registration of name. A run already in progress sees its context canceled.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLocked(name) {
		s.logger.Debug("alarm canceled", "alarm", name)
	}
}

// Interval returns the interval name is registered with.
func (s *Scheduler) Interval(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[name]
	if !ok {
		return 0, false
	}
	return a.interval, true
}

// Stop cancels every registration and waits for running callbacks to return.
// Registrations after Stop are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for name := range s.alarms {
		s.cancelLocked(name)
	}
	s.mu.Unlock()

	s.running.Wait()
}

func (s *Scheduler) cancelLocked(name string) bool {
	a, ok := s.alarms[name]
	if !ok {
		return false
	}
	a.cancel()
	delete(s.alarms, name)
	return true
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.Debug("alarm fired", "alarm", name)
			fn(ctx)
		}
	}
}
