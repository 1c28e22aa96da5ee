// Package registry owns the authoritative set of check definitions,
// merged from every non-hidden checkfile under the watched root.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/checkwatch/checkwatch/internal/checkfile"
	"github.com/checkwatch/checkwatch/internal/types"
)

// Registry is the canonical name → definition mapping. Reconcile
// replaces the working set and reports what changed so the scheduler and
// store can be adjusted without disturbing unchanged checks.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]*types.CheckDefinition
	diags  []types.Diagnostic
}

// Changes is the outcome of one reconciliation.
type Changes struct {
	// Added checks need a Pending state and a new timer.
	Added []*types.CheckDefinition
	// Removed names need their timer cancelled and state deleted.
	Removed []string
	// Changed checks (different command or directory) need a
	// reschedule and a state reset; no history survives.
	Changed []*types.CheckDefinition
}

// Empty reports whether the reconciliation was a no-op.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		checks: make(map[string]*types.CheckDefinition),
	}
}

// merge flattens parsed files into a single name → definition map.
// Hidden files are excluded entirely. Files merge in lexicographic order
// of their resolved paths, so on a name collision the later file wins,
// deterministically; the loss is recorded as a diagnostic.
func merge(files []*checkfile.File) (map[string]*types.CheckDefinition, []types.Diagnostic) {
	sorted := make([]*checkfile.File, 0, len(files))
	for _, f := range files {
		if f.Hidden {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RealPath < sorted[j].RealPath })

	checks := make(map[string]*types.CheckDefinition)
	var diags []types.Diagnostic

	for _, f := range sorted {
		diags = append(diags, f.Diagnostics...)
		for _, def := range f.Checks {
			if prev, ok := checks[def.Name]; ok {
				diags = append(diags, types.Diagnostic{
					File:    def.SourceFile,
					Message: fmt.Sprintf("duplicate check name %q overrides definition from %s", def.Name, prev.SourceFile),
				})
			}
			checks[def.Name] = def
		}
	}
	return checks, diags
}

// Reconcile merges the new parse and swaps it in, returning the diff
// against the previous working set. Unchanged definitions are left
// untouched: their timers and accumulated state survive the reload.
func (r *Registry) Reconcile(files []*checkfile.File) Changes {
	next, diags := merge(files)

	r.mu.Lock()
	defer r.mu.Unlock()

	var changes Changes
	for name, def := range next {
		prev, ok := r.checks[name]
		switch {
		case !ok:
			changes.Added = append(changes.Added, def)
		case !prev.Equal(def):
			changes.Changed = append(changes.Changed, def)
		}
	}
	for name := range r.checks {
		if _, ok := next[name]; !ok {
			changes.Removed = append(changes.Removed, name)
		}
	}

	sort.Slice(changes.Added, func(i, j int) bool { return changes.Added[i].Name < changes.Added[j].Name })
	sort.Slice(changes.Changed, func(i, j int) bool { return changes.Changed[i].Name < changes.Changed[j].Name })
	sort.Strings(changes.Removed)

	r.checks = next
	r.diags = diags
	return changes
}

// Get returns the definition for a name, or nil if not registered.
func (r *Registry) Get(name string) *types.CheckDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checks[name]
}

// Definitions returns all registered definitions in name order.
func (r *Registry) Definitions() []*types.CheckDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.CheckDefinition, 0, len(r.checks))
	for _, def := range r.checks {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Diagnostics returns the parse and collision diagnostics from the most
// recent reconciliation.
func (r *Registry) Diagnostics() []types.Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.checks)
}
