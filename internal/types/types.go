package types

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the current state of a check
type Status string

const (
	// StatusPending covers both "never run" and "currently running" so
	// readers never observe a half-updated record.
	StatusPending Status = "pending"
	StatusOk      Status = "ok"
	StatusFailing Status = "failing"
	StatusError   Status = "error"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusOk, StatusFailing, StatusError:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CheckDefinition is one named check parsed from a checkfile.
// Definitions are immutable once parsed; reloads replace them wholesale.
type CheckDefinition struct {
	Name       string `json:"name"`
	Command    string `json:"command"`
	SourceFile string `json:"source_file"`
	// Dir is the symlink-resolved directory of the checkfile; the
	// command runs with this as its working directory.
	Dir     string `json:"dir"`
	Section string `json:"section,omitempty"`
}

// Validate checks if the definition has valid field values
func (d *CheckDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("check name is required")
	}
	if strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("check %q has an empty command", d.Name)
	}
	if d.Dir == "" {
		return fmt.Errorf("check %q has no working directory", d.Name)
	}
	return nil
}

// Equal reports whether two definitions would schedule the same work.
// Section title changes alone do not count: the check keeps running.
func (d *CheckDefinition) Equal(other *CheckDefinition) bool {
	if other == nil {
		return false
	}
	return d.Name == other.Name && d.Command == other.Command && d.Dir == other.Dir
}

// Diagnostic is a non-fatal problem found while parsing or merging
// checkfiles (malformed line, duplicate name). It is logged and surfaced
// to the CLI, never treated as an error.
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"` // 0 when not tied to a line
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.File, d.Message)
}

// RunResult captures one execution of a check command. It is transient:
// it never outlives the CheckState update it produced, where it is kept
// only for debug inspection.
type RunResult struct {
	RunID     string        `json:"run_id"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	// SpawnErr is set when the command could not be started at all
	// (binary missing, permission denied). The run produced no output.
	SpawnErr string `json:"spawn_err,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// InfoPair is one (label, value) row a check reports for display.
// Order matters and is preserved end to end.
type InfoPair struct {
	Label string
	Value string
}

// Report is the parsed result contract a check emits on stdout:
// {"result": bool, "changing"?: bool, "url"?: string|null, "info"?: [[l,v],...]}
type Report struct {
	Result   bool
	Changing bool
	URL      *string
	Info     []InfoPair
}

// CheckState is the live status of one registered check. Exactly one
// exists per registered name; it is mutated only by the pipeline that
// just ran the check, via atomic swap in the state store.
type CheckState struct {
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Changing  bool       `json:"changing"`
	URL       *string    `json:"url,omitempty"`
	Info      []InfoPair `json:"info"`
	LastRun   *RunResult `json:"last_run,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to readers.
func (s *CheckState) Clone() *CheckState {
	out := *s
	if s.URL != nil {
		u := *s.URL
		out.URL = &u
	}
	if s.Info != nil {
		out.Info = make([]InfoPair, len(s.Info))
		copy(out.Info, s.Info)
	}
	if s.LastRun != nil {
		r := *s.LastRun
		out.LastRun = &r
	}
	return &out
}
