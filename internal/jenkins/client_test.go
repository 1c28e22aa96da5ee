package jenkins

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDoer is a test double for the injected HTTP capability.
type mockDoer struct {
	lastURL string
	status  int
	body    string
	err     error
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	m.lastURL = req.URL.String()
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestJobURL(t *testing.T) {
	c := NewClient("http://ci.example.com/", nil)

	u := c.JobURL("main-build", Options{})
	assert.Contains(t, u, "http://ci.example.com/job/main-build/api/json?depth=1&tree=")
	assert.Contains(t, u, `name,color,lastBuild\[`)
	assert.NotContains(t, u, "pretty")

	u = c.JobURL("main-build", Options{PrettyAPI: true})
	assert.Contains(t, u, "&pretty=true")
}

func TestRootURL(t *testing.T) {
	c := NewClient("http://ci.example.com", nil)
	u := c.RootURL(Options{})
	assert.Contains(t, u, `/api/json?depth=2&tree=jobs\[name,color,`)
}

func TestFetchJobPerJobMode(t *testing.T) {
	doer := &mockDoer{body: `{"name": "main-build", "color": "blue", "lastBuild": {"id": "42", "building": false}}`}
	c := NewClient("http://ci", doer)

	job, err := c.FetchJob(context.Background(), "main-build", Options{})
	require.NoError(t, err)

	assert.Equal(t, "blue", job.Color)
	require.NotNil(t, job.LastBuild)
	assert.Equal(t, "42", job.LastBuild.ID)
	assert.Contains(t, doer.lastURL, "/job/main-build/api/json")
}

func TestFetchJobRootMode(t *testing.T) {
	doer := &mockDoer{body: `{"jobs": [
		{"name": "other", "color": "red"},
		{"name": "main-build", "color": "blue"}
	]}`}
	c := NewClient("http://ci", doer)

	job, err := c.FetchJob(context.Background(), "main-build", Options{RootAPI: true})
	require.NoError(t, err)
	assert.Equal(t, "blue", job.Color)
	assert.Contains(t, doer.lastURL, "/api/json")
	assert.NotContains(t, doer.lastURL, "/job/")
}

func TestFetchJobRootModeNotFound(t *testing.T) {
	doer := &mockDoer{body: `{"jobs": [{"name": "other", "color": "red"}]}`}
	c := NewClient("http://ci", doer)

	_, err := c.FetchJob(context.Background(), "main-build", Options{RootAPI: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status for job main-build is not available")
}

func TestFetchJobUpstreamFailures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		c := NewClient("http://ci", &mockDoer{status: 500, body: "boom"})
		_, err := c.FetchJob(context.Background(), "j", Options{})
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		c := NewClient("http://ci", &mockDoer{body: "<html>login page</html>"})
		_, err := c.FetchJob(context.Background(), "j", Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed JSON")
	})

	t.Run("network error", func(t *testing.T) {
		c := NewClient("http://ci", &mockDoer{err: io.ErrUnexpectedEOF})
		_, err := c.FetchJob(context.Background(), "j", Options{})
		assert.Error(t, err)
	})
}
