// Package store holds the live status of every registered check. It is
// the single source of truth the UI collaborator reads.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/checkwatch/checkwatch/internal/types"
)

// historyWindow bounds how many recent runs are kept per check for
// debug inspection.
const historyWindow = 20

// Store maps check names to their current state. Writes are atomic
// swaps under the lock, so readers always observe a fully-formed
// CheckState and never a partial update.
type Store struct {
	mu      sync.RWMutex
	states  map[string]*types.CheckState
	history map[string][]*types.RunResult
}

// New creates an empty store
func New() *Store {
	return &Store{
		states:  make(map[string]*types.CheckState),
		history: make(map[string][]*types.RunResult),
	}
}

// Ensure registers a check with a Pending state if it is not already
// present. Re-ensuring an existing check is a no-op, so unchanged checks
// keep their accumulated state across reloads.
func (s *Store) Ensure(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[name]; ok {
		return
	}
	s.states[name] = &types.CheckState{
		Name:      name,
		Status:    types.StatusPending,
		Info:      []types.InfoPair{},
		UpdatedAt: time.Now(),
	}
}

// Reset drops a check back to Pending, discarding history. Used when a
// check's command changed on reload.
func (s *Store) Reset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[name]; !ok {
		return
	}
	s.states[name] = &types.CheckState{
		Name:      name,
		Status:    types.StatusPending,
		Info:      []types.InfoPair{},
		UpdatedAt: time.Now(),
	}
	delete(s.history, name)
}

// Apply records a completed run. If the check was removed while the run
// was in flight, the result is silently discarded: a cancelled check
// must not resurrect its state.
func (s *Store) Apply(name string, status types.Status, report *types.Report, run *types.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[name]; !ok {
		return
	}

	next := &types.CheckState{
		Name:      name,
		Status:    status,
		Changing:  report.Changing,
		URL:       report.URL,
		Info:      report.Info,
		LastRun:   run,
		UpdatedAt: time.Now(),
	}
	if next.Info == nil {
		next.Info = []types.InfoPair{}
	}
	s.states[name] = next

	runs := append(s.history[name], run)
	if len(runs) > historyWindow {
		runs = runs[len(runs)-historyWindow:]
	}
	s.history[name] = runs
}

// Remove deletes a check's state and history. In-flight runs for it
// will be discarded by Apply.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, name)
	delete(s.history, name)
}

// Get returns a deep copy of one check's state, or nil if unknown.
func (s *Store) Get(name string) *types.CheckState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[name]
	if !ok {
		return nil
	}
	return st.Clone()
}

// History returns copies of a check's recent runs, oldest first, capped
// at the history window.
func (s *Store) History(name string) []*types.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.history[name]
	out := make([]*types.RunResult, 0, len(runs))
	for _, r := range runs {
		c := *r
		out = append(out, &c)
	}
	return out
}

// Snapshot returns deep copies of every state in stable name order.
func (s *Store) Snapshot() []*types.CheckState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.CheckState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered checks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
