// Package scheduler owns one periodic timer per registered check.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/checkwatch/checkwatch/internal/types"
)

// RunFunc executes one check run. It is called from a per-run goroutine
// and must not panic; everything downstream of it records failures on
// the check's own state.
type RunFunc func(ctx context.Context, def *types.CheckDefinition)

// Config holds scheduler configuration
type Config struct {
	// Interval between periodic fires for each check (default: 10s).
	// A changed interval applies to timers scheduled after the change;
	// running timers keep their period until their check is next
	// rescheduled by reconciliation.
	Interval time.Duration
	// MaxConcurrentRuns caps simultaneous runs across all checks.
	// Zero keeps the contract's default of no cross-check limit.
	MaxConcurrentRuns int64
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Interval: 10 * time.Second,
	}
}

// Scheduler fires checks independently: one goroutine per check with an
// immediate first run, then ticks at the configured interval. A fire
// that arrives while the previous run of the same check is still in
// flight is dropped, never queued, so a stalled check cannot pile up
// concurrent executions.
type Scheduler struct {
	mu      sync.Mutex
	run     RunFunc
	config  *Config
	entries map[string]*entry
	sem     *semaphore.Weighted // nil when unbounded
	stopped bool
}

type entry struct {
	def      *types.CheckDefinition
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	inFlight atomic.Bool
}

// New creates a scheduler that invokes run for every fire
func New(config *Config, run RunFunc) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	s := &Scheduler{
		run:     run,
		config:  config,
		entries: make(map[string]*entry),
	}
	if config.MaxConcurrentRuns > 0 {
		s.sem = semaphore.NewWeighted(config.MaxConcurrentRuns)
	}
	return s
}

// SetInterval changes the interval used for subsequently scheduled
// timers. Existing timers are not retimed.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.config.Interval = d
	}
}

// Schedule starts immediate-plus-periodic firing for a definition. An
// existing timer for the same name is cancelled first, which resets the
// period, so reconciliation can reuse Schedule for changed commands.
func (s *Scheduler) Schedule(ctx context.Context, def *types.CheckDefinition) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.entries[def.Name]; ok {
		close(prev.stopCh)
	}
	e := &entry{
		def:      def,
		interval: s.config.Interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	s.entries[def.Name] = e
	s.mu.Unlock()

	go s.loop(ctx, e)
}

// Cancel stops future fires for a check. An in-flight run is left to
// finish; its result is discarded downstream because the check's state
// entry is already gone.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		close(e.stopCh)
		delete(s.entries, name)
	}
}

// RunNow fires a check immediately, bypassing its timer. The no-overlap
// invariant still applies. Returns false for unknown names.
func (s *Scheduler) RunNow(ctx context.Context, name string) bool {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.fire(ctx, e)
	return true
}

// Stop cancels every timer. Idempotent. In-flight runs finish on their
// own; callers that need to wait should cancel the context they passed
// to Schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	for name, e := range s.entries {
		close(e.stopCh)
		delete(s.entries, name)
	}
}

// Scheduled reports whether a timer exists for the name.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer close(e.doneCh)

	// Immediate first fire, then periodic
	s.fire(ctx, e)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, e)
		}
	}
}

// fire starts one run unless the previous run of this check is still in
// flight (dropped) or the global cap is exhausted (also dropped; a
// queued run would violate the no-pile-up guarantee just the same).
func (s *Scheduler) fire(ctx context.Context, e *entry) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return
	}
	if s.sem != nil && !s.sem.TryAcquire(1) {
		e.inFlight.Store(false)
		return
	}

	go func() {
		defer func() {
			if s.sem != nil {
				s.sem.Release(1)
			}
			e.inFlight.Store(false)
		}()
		s.run(ctx, e.def)
	}()
}
