package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkwatch/checkwatch/internal/types"
)

// fakeRunner returns canned stdout per check name without spawning
// processes.
type fakeRunner struct {
	mu     sync.Mutex
	stdout map[string]string
	runs   map[string]int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{stdout: make(map[string]string), runs: make(map[string]int)}
}

func (f *fakeRunner) set(name, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stdout[name] = stdout
}

func (f *fakeRunner) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[name]
}

func (f *fakeRunner) Run(ctx context.Context, def *types.CheckDefinition) *types.RunResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[def.Name]++
	return &types.RunResult{
		RunID:     uuid.New().String(),
		Stdout:    f.stdout[def.Name],
		StartedAt: time.Now(),
	}
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func startOrchestrator(t *testing.T, root string, r *fakeRunner) *Orchestrator {
	t.Helper()
	o, err := New(&Config{
		Root:        root,
		RunInterval: time.Hour, // immediate fire only; reloads drive the rest
		Debounce:    50 * time.Millisecond,
		Runner:      r,
	})
	require.NoError(t, err)
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(o.Stop)
	return o
}

func waitForStatus(t *testing.T, o *Orchestrator, name string, status types.Status) *types.CheckState {
	t.Helper()
	var st *types.CheckState
	require.Eventually(t, func() bool {
		st = o.State(name)
		return st != nil && st.Status == status
	}, 5*time.Second, 20*time.Millisecond, "check %q never reached %s", name, status)
	return st
}

func TestStartRunsDiscoveredChecks(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	r.set("passing", `{"result": true, "url": "http://x"}`)
	r.set("failing", `{"result": false}`)
	writeFile(t, filepath.Join(root, "main"), "passing: cmd-a\nfailing: cmd-b\n")

	o := startOrchestrator(t, root, r)

	st := waitForStatus(t, o, "passing", types.StatusOk)
	require.NotNil(t, st.URL)
	assert.Equal(t, "http://x", *st.URL)
	waitForStatus(t, o, "failing", types.StatusFailing)

	snap := o.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "failing", snap[0].Name)
	assert.Equal(t, "passing", snap[1].Name)
}

func TestMalformedStdoutBecomesErrorState(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	r.set("broken", "not json")
	writeFile(t, filepath.Join(root, "main"), "broken: whatever\n")

	o := startOrchestrator(t, root, r)

	st := waitForStatus(t, o, "broken", types.StatusError)
	require.NotEmpty(t, st.Info)
	assert.Equal(t, "Error", st.Info[0].Label)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "not json", st.LastRun.Stdout)
}

func TestReloadAddsAndRemovesChecks(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	r.set("A", `{"result": true}`)
	r.set("B", `{"result": true}`)
	r.set("C", `{"result": true}`)
	path := filepath.Join(root, "main")
	writeFile(t, path, "A: a\nB: b\n")

	o := startOrchestrator(t, root, r)
	stA := waitForStatus(t, o, "A", types.StatusOk)
	waitForStatus(t, o, "B", types.StatusOk)

	// Rewrite the checkfile: B disappears, C appears
	writeFile(t, path, "A: a\nC: c\n")

	waitForStatus(t, o, "C", types.StatusOk)
	require.Eventually(t, func() bool { return o.State("B") == nil },
		5*time.Second, 20*time.Millisecond, "B was never removed")

	// A kept its state and was not re-run by the reload
	after := o.State("A")
	require.NotNil(t, after)
	assert.Equal(t, stA.LastRun.RunID, after.LastRun.RunID)

	names := []string{}
	for _, st := range o.Snapshot() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestChangedCommandResetsAndReruns(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	r.set("A", `{"result": true}`)
	path := filepath.Join(root, "main")
	writeFile(t, path, "A: first-command\n")

	o := startOrchestrator(t, root, r)
	waitForStatus(t, o, "A", types.StatusOk)
	firstRuns := r.count("A")

	writeFile(t, path, "A: second-command\n")

	require.Eventually(t, func() bool { return r.count("A") > firstRuns },
		5*time.Second, 20*time.Millisecond, "changed command was never re-run")
	waitForStatus(t, o, "A", types.StatusOk)
}

func TestRunNow(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	r.set("A", `{"result": true}`)
	writeFile(t, filepath.Join(root, "main"), "A: a\n")

	o := startOrchestrator(t, root, r)
	waitForStatus(t, o, "A", types.StatusOk)

	before := r.count("A")
	assert.True(t, o.RunNow(context.Background(), "A"))
	require.Eventually(t, func() bool { return r.count("A") > before },
		5*time.Second, 20*time.Millisecond)

	assert.False(t, o.RunNow(context.Background(), "unknown"))
}

func TestDiagnosticsSurface(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	writeFile(t, filepath.Join(root, "main"), "good: true\nbroken line here\n")

	o := startOrchestrator(t, root, r)

	diags := o.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Line)
}

func TestStartRequiresRoot(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main"), "A: a\n")
	r := newFakeRunner()
	r.set("A", `{"result": true}`)

	o := startOrchestrator(t, root, r)
	o.Stop()
	o.Stop()
}

func TestDoubleStartFails(t *testing.T) {
	root := t.TempDir()
	r := newFakeRunner()
	o := startOrchestrator(t, root, r)
	assert.Error(t, o.Start(context.Background()))
}
