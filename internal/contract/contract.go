// Package contract parses the JSON result contract every check command
// must emit on stdout:
//
//	{"result": bool, "changing"?: bool, "url"?: string|null, "info"?: [[string,string], ...]}
//
// Extra fields are ignored. A missing or non-boolean "result" is a
// contract violation. Validation happens here, at the parse boundary;
// the rest of the system only ever sees a well-formed Report.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/checkwatch/checkwatch/internal/types"
)

// payload mirrors the wire shape. Pointers distinguish "absent" from
// zero values so defaults can be applied explicitly.
type payload struct {
	Result   *bool           `json:"result"`
	Changing *bool           `json:"changing"`
	URL      *string         `json:"url"`
	Info     json.RawMessage `json:"info"`
}

// Parse decodes one check's stdout into a Report. The error message is
// suitable for direct display in a state's info list.
func Parse(stdout []byte) (*types.Report, error) {
	trimmed := strings.TrimSpace(string(stdout))
	if trimmed == "" {
		return nil, fmt.Errorf("no output on stdout")
	}

	var p payload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, fmt.Errorf("invalid JSON on stdout: %v", err)
	}
	if p.Result == nil {
		return nil, fmt.Errorf("missing required boolean field \"result\"")
	}

	report := &types.Report{
		Result: *p.Result,
		URL:    p.URL,
	}
	if p.Changing != nil {
		report.Changing = *p.Changing
	}

	if len(p.Info) > 0 && string(p.Info) != "null" {
		var rows [][]string
		if err := json.Unmarshal(p.Info, &rows); err != nil {
			return nil, fmt.Errorf("malformed \"info\" field: %v", err)
		}
		for i, row := range rows {
			if len(row) != 2 {
				return nil, fmt.Errorf("info entry %d has %d elements, want 2", i, len(row))
			}
			report.Info = append(report.Info, types.InfoPair{Label: row[0], Value: row[1]})
		}
	}

	return report, nil
}

// Evaluate turns a finished RunResult into a status and report. Spawn
// failures, timeouts, and contract violations all land on StatusError
// with the diagnostic exposed through the info list so the UI has
// something to render without special-casing.
func Evaluate(run *types.RunResult) (types.Status, *types.Report) {
	if run.SpawnErr != "" {
		return types.StatusError, errorReport(fmt.Sprintf("failed to start: %s", run.SpawnErr))
	}
	if run.TimedOut {
		return types.StatusError, errorReport("timed out")
	}

	report, err := Parse([]byte(run.Stdout))
	if err != nil {
		return types.StatusError, errorReport(err.Error())
	}
	if report.Result {
		return types.StatusOk, report
	}
	return types.StatusFailing, report
}

func errorReport(msg string) *types.Report {
	return &types.Report{
		Info: []types.InfoPair{{Label: "Error", Value: msg}},
	}
}

// Render serializes a Report back to the wire contract. Adapters use it
// to emit their stdout; Parse(Render(r)) round-trips every field
// including info order.
func Render(r *types.Report) ([]byte, error) {
	info := make([][]string, 0, len(r.Info))
	for _, pair := range r.Info {
		info = append(info, []string{pair.Label, pair.Value})
	}
	return json.Marshal(struct {
		Result   bool       `json:"result"`
		Changing bool       `json:"changing"`
		URL      *string    `json:"url"`
		Info     [][]string `json:"info"`
	}{
		Result:   r.Result,
		Changing: r.Changing,
		URL:      r.URL,
		Info:     info,
	})
}
