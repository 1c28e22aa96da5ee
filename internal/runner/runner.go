// Package runner executes check commands as child processes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/checkwatch/checkwatch/internal/types"
)

// Runner abstracts check execution so the scheduler and orchestrator can
// be tested without spawning real processes.
type Runner interface {
	Run(ctx context.Context, def *types.CheckDefinition) *types.RunResult
}

// Config holds runner configuration
type Config struct {
	// ScriptsDir is prepended to PATH so bundled adapters (for example
	// jenkins-status) resolve without absolute paths in checkfiles.
	ScriptsDir string
	// Timeout kills a run that exceeds it. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns default runner configuration
func DefaultConfig() *Config {
	return &Config{}
}

// ExecRunner runs commands through the shell in the check's directory.
type ExecRunner struct {
	config *Config
}

// NewExecRunner creates a new shell-backed runner
func NewExecRunner(config *Config) *ExecRunner {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExecRunner{config: config}
}

// Run executes the definition's command and captures its output. It
// never returns an error: spawn failures and timeouts are recorded on
// the RunResult itself so one broken check cannot take down the
// scheduler.
func (r *ExecRunner) Run(ctx context.Context, def *types.CheckDefinition) *types.RunResult {
	result := &types.RunResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", def.Command)
	cmd.Dir = def.Dir
	cmd.Env = r.environ()

	// Run the command in its own process group so cancellation kills
	// the whole tree, not just the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Duration = time.Since(result.StartedAt)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			result.TimedOut = true
			result.ExitCode = -1
			if result.Stderr != "" {
				result.Stderr += "\n"
			}
			result.Stderr += "timed out"
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			// The command never started (shell missing, bad dir,
			// permission denied).
			result.SpawnErr = err.Error()
			result.ExitCode = -1
		}
	}

	return result
}

// environ returns the inherited environment with ScriptsDir prepended to
// PATH.
func (r *ExecRunner) environ() []string {
	env := os.Environ()
	if r.config.ScriptsDir == "" {
		return env
	}
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + r.config.ScriptsDir + string(os.PathListSeparator) + kv[len("PATH="):]
			return env
		}
	}
	return append(env, "PATH="+r.config.ScriptsDir)
}
