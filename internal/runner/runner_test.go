package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkwatch/checkwatch/internal/types"
)

func testDef(t *testing.T, command string) *types.CheckDefinition {
	t.Helper()
	return &types.CheckDefinition{
		Name:       "test",
		Command:    command,
		SourceFile: "test",
		Dir:        t.TempDir(),
	}
}

func TestRunCapturesOutput(t *testing.T) {
	r := NewExecRunner(nil)
	res := r.Run(context.Background(), testDef(t, `echo '{"result": true}'; echo diag >&2`))

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "{\"result\": true}\n", res.Stdout)
	assert.Equal(t, "diag\n", res.Stderr)
	assert.Empty(t, res.SpawnErr)
	assert.False(t, res.TimedOut)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.StartedAt.IsZero())
}

func TestRunNonZeroExit(t *testing.T) {
	r := NewExecRunner(nil)
	res := r.Run(context.Background(), testDef(t, "echo failing; exit 3"))

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "failing\n", res.Stdout)
	assert.Empty(t, res.SpawnErr)
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	r := NewExecRunner(nil)
	res := r.Run(context.Background(), &types.CheckDefinition{
		Name: "pwd", Command: "pwd", SourceFile: "t", Dir: dir,
	})

	assert.Equal(t, 0, res.ExitCode)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	require.NoError(t, err)
	assert.Equal(t, real, got)
}

func TestRunScriptsDirOnPath(t *testing.T) {
	scripts := t.TempDir()
	script := filepath.Join(scripts, "fake-check")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho found\n"), 0o755))

	r := NewExecRunner(&Config{ScriptsDir: scripts})
	res := r.Run(context.Background(), testDef(t, "fake-check"))

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "found\n", res.Stdout)
}

func TestRunSpawnFailure(t *testing.T) {
	r := NewExecRunner(nil)
	def := testDef(t, "true")
	def.Dir = filepath.Join(def.Dir, "does-not-exist")

	res := r.Run(context.Background(), def)

	// Spawn failure is recorded, not raised
	assert.NotEmpty(t, res.SpawnErr)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	r := NewExecRunner(&Config{Timeout: 100 * time.Millisecond})
	start := time.Now()
	res := r.Run(context.Background(), testDef(t, "sleep 10"))

	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Stderr, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunMissingBinaryIsProcessFailure(t *testing.T) {
	// The shell itself starts fine; the missing binary is an ordinary
	// non-zero exit, classified later by the contract parser.
	r := NewExecRunner(nil)
	res := r.Run(context.Background(), testDef(t, "definitely-not-a-real-binary-xyz"))

	assert.Empty(t, res.SpawnErr)
	assert.NotEqual(t, 0, res.ExitCode)
}
