// Package orchestrator wires the check pipeline together: watcher →
// parser → registry → scheduler → runner → contract → store.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/checkwatch/checkwatch/internal/checkfile"
	"github.com/checkwatch/checkwatch/internal/contract"
	"github.com/checkwatch/checkwatch/internal/registry"
	"github.com/checkwatch/checkwatch/internal/runner"
	"github.com/checkwatch/checkwatch/internal/scheduler"
	"github.com/checkwatch/checkwatch/internal/store"
	"github.com/checkwatch/checkwatch/internal/types"
	"github.com/checkwatch/checkwatch/internal/watcher"
)

// Config holds orchestrator configuration
type Config struct {
	// Root is the checkfile directory to watch.
	Root string
	// RunInterval is the per-check firing period (default: 10s).
	RunInterval time.Duration
	// RunTimeout kills runs that exceed it; zero disables.
	RunTimeout time.Duration
	// MaxConcurrentRuns caps simultaneous runs; zero means unbounded.
	MaxConcurrentRuns int64
	// ScriptsDir is prepended to PATH for check commands.
	ScriptsDir string
	// Debounce is the file-watch settle window (default: 300ms).
	Debounce time.Duration
	// Runner overrides command execution, for tests. Nil uses the
	// shell-backed runner.
	Runner runner.Runner
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{
		RunInterval: 10 * time.Second,
		Debounce:    300 * time.Millisecond,
	}
}

// Orchestrator is the single explicitly-constructed owner of all check
// state. There are no package-level singletons: everything hangs off
// one instance.
type Orchestrator struct {
	config     *Config
	instanceID string

	store    *store.Store
	registry *registry.Registry
	sched    *scheduler.Scheduler
	runner   runner.Runner

	// limiter collapses watcher bursts into at most two reconciles
	// per second.
	limiter *rate.Limiter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	watch   *watcher.Watcher
}

// New creates an orchestrator for the given configuration
func New(config *Config) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Root == "" {
		return nil, fmt.Errorf("checkfile root is required")
	}
	if config.RunInterval <= 0 {
		config.RunInterval = 10 * time.Second
	}
	if config.Debounce <= 0 {
		config.Debounce = 300 * time.Millisecond
	}

	o := &Orchestrator{
		config:     config,
		instanceID: uuid.New().String(),
		store:      store.New(),
		registry:   registry.New(),
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}

	o.runner = config.Runner
	if o.runner == nil {
		o.runner = runner.NewExecRunner(&runner.Config{
			ScriptsDir: config.ScriptsDir,
			Timeout:    config.RunTimeout,
		})
	}

	o.sched = scheduler.New(&scheduler.Config{
		Interval:          config.RunInterval,
		MaxConcurrentRuns: config.MaxConcurrentRuns,
	}, o.runOne)

	return o, nil
}

// InstanceID identifies this orchestrator instance in logs.
func (o *Orchestrator) InstanceID() string {
	return o.instanceID
}

// Start scans the root, schedules every discovered check, and begins
// watching for checkfile changes. It returns once running; the work
// continues on background goroutines until Stop or context cancel.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("orchestrator is already running")
	}

	ctx, cancel := context.WithCancel(ctx)

	w, err := watcher.New(o.config.Root, &watcher.Config{Debounce: o.config.Debounce})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch %s: %w", o.config.Root, err)
	}
	o.watch = w
	o.cancel = cancel

	if err := o.reconcile(ctx); err != nil {
		w.Stop()
		cancel()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	o.group = g
	g.Go(func() error {
		return o.watchLoop(gctx)
	})

	o.running = true
	log.Printf("orchestrator %s: watching %s (%d checks)", o.instanceID, o.config.Root, o.registry.Len())
	return nil
}

// Stop cancels all timers and the watcher. Idempotent. In-flight runs
// are abandoned; their results land in a store entry that still exists
// but the process is exiting anyway.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return
	}
	o.running = false

	o.cancel()
	o.watch.Stop()
	o.sched.Stop()
	o.group.Wait() //nolint:errcheck // loop only returns ctx.Err
}

// RunNow fires one check immediately, bypassing its timer. The
// no-overlap invariant still holds. Returns false for unknown names.
func (o *Orchestrator) RunNow(ctx context.Context, name string) bool {
	return o.sched.RunNow(ctx, name)
}

// Snapshot returns the current state of every check, for the UI
// collaborator.
func (o *Orchestrator) Snapshot() []*types.CheckState {
	return o.store.Snapshot()
}

// State returns one check's state, or nil if unknown.
func (o *Orchestrator) State(name string) *types.CheckState {
	return o.store.Get(name)
}

// History returns a check's recent runs for the debug view.
func (o *Orchestrator) History(name string) []*types.RunResult {
	return o.store.History(name)
}

// Definitions returns the registered check definitions in name order.
func (o *Orchestrator) Definitions() []*types.CheckDefinition {
	return o.registry.Definitions()
}

// Diagnostics returns parse and collision diagnostics from the latest
// reload.
func (o *Orchestrator) Diagnostics() []types.Diagnostic {
	return o.registry.Diagnostics()
}

// watchLoop turns debounced checkfile changes into reconciles.
func (o *Orchestrator) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-o.watch.Events():
			if !ok {
				return nil
			}
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := o.reconcile(ctx); err != nil {
				// A failed rescan (root deleted, permissions revoked)
				// keeps the current working set; reported, not fatal.
				log.Printf("orchestrator: reload failed: %v", err)
			}
		}
	}
}

// reconcile rescans the root and applies the diff: new checks get a
// Pending state and a timer, removed ones lose both, changed ones are
// reset and rescheduled. Unchanged checks are not disturbed.
func (o *Orchestrator) reconcile(ctx context.Context) error {
	files, err := checkfile.LoadDir(o.config.Root)
	if err != nil {
		return err
	}

	changes := o.registry.Reconcile(files)
	for _, diag := range o.registry.Diagnostics() {
		log.Printf("checkfile: %s", diag)
	}

	for _, name := range changes.Removed {
		o.sched.Cancel(name)
		o.store.Remove(name)
	}
	for _, def := range changes.Added {
		o.store.Ensure(def.Name)
		o.sched.Schedule(ctx, def)
	}
	for _, def := range changes.Changed {
		o.store.Reset(def.Name)
		o.sched.Schedule(ctx, def)
	}

	if !changes.Empty() {
		log.Printf("orchestrator: reconciled: %d added, %d changed, %d removed",
			len(changes.Added), len(changes.Changed), len(changes.Removed))
	}
	return nil
}

// runOne executes one check run and applies the outcome. Every failure
// mode lands on the check's own state; nothing here can take the
// scheduler down.
func (o *Orchestrator) runOne(ctx context.Context, def *types.CheckDefinition) {
	result := o.runner.Run(ctx, def)
	status, report := contract.Evaluate(result)

	// A reload may have removed or redefined the check while this run
	// was in flight; a stale run's result is discarded, not applied.
	current := o.registry.Get(def.Name)
	if current == nil || !current.Equal(def) {
		return
	}

	prev := o.store.Get(def.Name)
	o.store.Apply(def.Name, status, report, result)

	if prev != nil && prev.Status != status {
		log.Printf("check %q: %s -> %s", def.Name, prev.Status, status)
	}
}
