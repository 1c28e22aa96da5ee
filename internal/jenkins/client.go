package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Doer is the injected HTTP capability; the adapter does not pick a
// client. http.DefaultClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options selects the query mode.
type Options struct {
	// RootAPI queries the aggregate /api/json endpoint for all jobs
	// and selects the requested one, instead of the per-job endpoint.
	RootAPI bool
	// PrettyAPI appends pretty=true for human debugging; parsing is
	// unaffected.
	PrettyAPI bool
}

// Job is the slice of Jenkins job JSON the adapter consumes.
type Job struct {
	Name                string `json:"name"`
	Color               string `json:"color"`
	LastBuild           *Build `json:"lastBuild"`
	LastSuccessfulBuild *Build `json:"lastSuccessfulBuild"`
}

// Build is the slice of Jenkins build JSON the adapter consumes.
type Build struct {
	ID              string    `json:"id"`
	Result          string    `json:"result"`
	Building        bool      `json:"building"`
	FullDisplayName string    `json:"fullDisplayName"`
	URL             string    `json:"url"`
	Timestamp       int64     `json:"timestamp"`
	Duration        int64     `json:"duration"`
	ChangeSet       ChangeSet `json:"changeSet"`
	Actions         []Action  `json:"actions"`
}

// ChangeSet holds the commits that went into a build, oldest first.
type ChangeSet struct {
	Items []ChangeItem `json:"items"`
}

// ChangeItem is one commit in a build's change set.
type ChangeItem struct {
	Msg      string `json:"msg"`
	CommitID string `json:"commitId"`
	Author   struct {
		FullName string `json:"fullName"`
	} `json:"author"`
}

// Action is one entry of the heterogeneous actions array; only the
// built-revision entries carry the field we want.
type Action struct {
	LastBuiltRevision *Revision `json:"lastBuiltRevision"`
}

// Revision identifies the commit a build was built from.
type Revision struct {
	SHA1 string `json:"SHA1"`
}

// Client fetches job status from one Jenkins instance.
type Client struct {
	base string
	doer Doer
}

// NewClient creates a client for the given base URL
func NewClient(base string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		doer: doer,
	}
}

// JobURL returns the per-job API URL for jobName.
func (c *Client) JobURL(jobName string, opts Options) string {
	u := fmt.Sprintf("%s/job/%s/api/json?depth=1&tree=%s", c.base, url.PathEscape(jobName), JobTree().Serialize())
	if opts.PrettyAPI {
		u += "&pretty=true"
	}
	return u
}

// RootURL returns the aggregate API URL covering every job.
func (c *Client) RootURL(opts Options) string {
	u := fmt.Sprintf("%s/api/json?depth=2&tree=%s", c.base, RootTree().Serialize())
	if opts.PrettyAPI {
		u += "&pretty=true"
	}
	return u
}

// FetchJob retrieves the status of one job. Network failures, non-2xx
// responses, malformed upstream JSON, and (in root mode) an unknown job
// name are all returned as errors: the adapter process is expected to
// die on them, which the core then classifies as an Error check state.
func (c *Client) FetchJob(ctx context.Context, jobName string, opts Options) (*Job, error) {
	if opts.RootAPI {
		return c.fetchFromRoot(ctx, jobName, opts)
	}

	var job Job
	if err := c.getJSON(ctx, c.JobURL(jobName, opts), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) fetchFromRoot(ctx context.Context, jobName string, opts Options) (*Job, error) {
	var root struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.getJSON(ctx, c.RootURL(opts), &root); err != nil {
		return nil, err
	}

	for i := range root.Jobs {
		if root.Jobs[i].Name == jobName {
			return &root.Jobs[i], nil
		}
	}
	return nil, fmt.Errorf("status for job %s is not available", jobName)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed JSON from %s: %w", rawURL, err)
	}
	return nil
}
