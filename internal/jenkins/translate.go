package jenkins

import (
	"fmt"
	"time"

	"github.com/checkwatch/checkwatch/internal/types"
)

// startedFormat is how build start times render in info rows.
const startedFormat = "2006-01-02 15:04:05"

// missingCommit is shown for change-set items with no commit id.
const missingCommit = "<missing>"

// separator visually splits info blocks in the rendered menu.
var separator = types.InfoPair{Label: "---", Value: ""}

// passingColors are the job colors that count as success: a passing
// idle job and a passing job with a build in progress. Everything else
// (red, yellow/unstable, disabled, grey/not built, aborted) is not.
var passingColors = map[string]bool{
	"blue":       true,
	"blue_anime": true,
}

// Translate converts one job's status into the check result contract.
func Translate(job *Job) *types.Report {
	report := &types.Report{
		Result: passingColors[job.Color],
	}

	last := job.LastBuild
	if last == nil {
		return report
	}

	report.Changing = last.Building
	consoleURL := last.URL + "console"
	report.URL = &consoleURL

	report.Info = append(report.Info,
		types.InfoPair{Label: "Build", Value: last.FullDisplayName},
		types.InfoPair{Label: "Duration", Value: formatDuration(last.Duration)},
		types.InfoPair{Label: "Started", Value: formatStarted(last.Timestamp)},
	)
	if sha, ok := builtRevision(last); ok {
		report.Info = append(report.Info, types.InfoPair{Label: "SHA", Value: sha})
	}

	items := last.ChangeSet.Items
	if len(items) > 0 {
		// Items arrive oldest first; the most recent author is last.
		report.Info = append(report.Info,
			types.InfoPair{Label: "Author", Value: items[len(items)-1].Author.FullName})

		report.Info = append(report.Info, separator,
			types.InfoPair{Label: "Recents", Value: ""})
		for i := len(items) - 1; i >= 0; i-- {
			value := missingCommit
			if items[i].CommitID != "" {
				value = shortSHA(items[i].CommitID)
			}
			report.Info = append(report.Info, types.InfoPair{
				Label: " - " + items[i].Msg,
				Value: value,
			})
		}
	}

	// When the last build was itself the last successful one, the
	// extra block adds nothing and is omitted.
	success := job.LastSuccessfulBuild
	if success != nil && success.ID != last.ID {
		report.Info = append(report.Info, separator,
			types.InfoPair{Label: "Last Successful Build", Value: ""},
			types.InfoPair{Label: "  Name", Value: success.FullDisplayName},
			types.InfoPair{Label: "  Duration", Value: formatDuration(success.Duration)},
		)
		if sha, ok := builtRevision(success); ok {
			report.Info = append(report.Info, types.InfoPair{Label: "  SHA", Value: sha})
		}
		report.Info = append(report.Info,
			types.InfoPair{Label: "  Started", Value: formatStarted(success.Timestamp)})
	}

	return report
}

// builtRevision finds the first actions entry carrying a built
// revision and returns its truncated SHA.
func builtRevision(b *Build) (string, bool) {
	for _, a := range b.Actions {
		if a.LastBuiltRevision != nil && a.LastBuiltRevision.SHA1 != "" {
			return shortSHA(a.LastBuiltRevision.SHA1), true
		}
	}
	return "", false
}

// shortSHA truncates a commit hash to exactly 6 characters.
func shortSHA(sha string) string {
	if len(sha) > 6 {
		return sha[:6]
	}
	return sha
}

// formatDuration renders milliseconds as HH:MM:SS.
func formatDuration(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// formatStarted renders an epoch-milliseconds timestamp in local time.
func formatStarted(ms int64) string {
	return time.UnixMilli(ms).Local().Format(startedFormat)
}
