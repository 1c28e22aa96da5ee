package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForBatch(t *testing.T, w *Watcher) bool {
	t.Helper()
	select {
	case <-w.Events():
		return true
	case <-time.After(3 * time.Second):
		return false
	}
}

func TestWatcherSignalsOnWrite(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, &Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "main"), []byte("a: true\n"), 0o644))
	assert.True(t, waitForBatch(t, w), "no batch after file write")
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, &Config{Debounce: 150 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop()

	// A rapid burst of writes, as an editor save produces
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "main"), []byte("a: true\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitForBatch(t, w))

	// The burst collapses into one batch; nothing further arrives
	select {
	case <-w.Events():
		t.Error("burst produced a second batch")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherIgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, &Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "save.swp"), []byte("junk"), 0o644))

	select {
	case <-w.Events():
		t.Error("hidden/temp file produced a batch")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherPicksUpNewSubdirectory(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, &Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop()

	sub := filepath.Join(root, "team")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.True(t, waitForBatch(t, w), "no batch for new directory")

	// Writes inside the new directory are observed too
	require.NoError(t, os.WriteFile(filepath.Join(sub, "extra"), []byte("b: true\n"), 0o644))
	assert.True(t, waitForBatch(t, w), "no batch for file in new directory")
}

func TestWatcherMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}
