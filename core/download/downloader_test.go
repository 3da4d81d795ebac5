package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/core"
)

func TestPlan(t *testing.T) {
	t.Parallel()

	result := core.IntersectionResult{
		Common: []string{"A-2", "A-3", "A-4"},
		Resolutions: map[string]core.Resolution{
			"A-2": {NumericID: 42, SourceLink: "/x/42.html"},
			"A-4": {NumericID: 7, SourceLink: "/x/7.html"},
		},
	}

	plan := Plan(result, "https://seed.test/", "out")
	require.Len(t, plan, 2, "unresolved codes stay out of the plan")

	assert.Equal(t, "A-2", plan[0].Code)
	assert.Equal(t, "https://seed.test/download/42.torrent", plan[0].TargetURL)
	assert.Equal(t, filepath.Join("out", "seed", "A-2.torrent"), plan[0].LocalPath)
	assert.Equal(t, core.StatusPlanned, plan[0].Status)

	assert.Equal(t, "A-4", plan[1].Code)
	assert.Equal(t, "https://seed.test/download/7.torrent", plan[1].TargetURL)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	entries := []core.DownloadEntry{
		{Status: core.StatusDownloaded},
		{Status: core.StatusDownloaded},
		{Status: core.StatusSkippedExists},
		{Status: core.StatusFailed},
		{Status: core.StatusPlanned},
	}

	s := Summarize(entries, 7)
	assert.Equal(t, 2, s.Downloaded)
	assert.Equal(t, 1, s.SkippedExists)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Planned)
	assert.Equal(t, 2, s.Unresolved)
}

func serveArtifacts(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunDownloads(t *testing.T) {
	t.Parallel()

	srv := serveArtifacts(t, "payload-v1")
	dir := t.TempDir()

	plan := []core.DownloadEntry{
		{Code: "A-1", TargetURL: srv.URL + "/download/1.torrent", LocalPath: filepath.Join(dir, "seed", "A-1.torrent"), Status: core.StatusPlanned},
		{Code: "A-2", TargetURL: srv.URL + "/download/missing.torrent", LocalPath: filepath.Join(dir, "seed", "A-2.torrent"), Status: core.StatusPlanned},
	}

	out, err := New(zap.NewNop()).Run(context.Background(), plan, Options{})
	require.NoError(t, err, "partial failure does not fail the run")

	assert.Equal(t, core.StatusDownloaded, out[0].Status)
	data, err := os.ReadFile(out[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "payload-v1", string(data))

	assert.Equal(t, core.StatusFailed, out[1].Status)
	assert.Contains(t, out[1].Error, "404")

	assert.Equal(t, core.StatusPlanned, plan[0].Status, "input plan is not mutated")
}

func TestRunSkipsExisting(t *testing.T) {
	t.Parallel()

	srv := serveArtifacts(t, "payload-v2")
	dir := t.TempDir()

	path := filepath.Join(dir, "A-1.torrent")
	require.NoError(t, os.WriteFile(path, []byte("old-content"), 0644))

	plan := []core.DownloadEntry{
		{Code: "A-1", TargetURL: srv.URL + "/download/1.torrent", LocalPath: path, Status: core.StatusPlanned},
	}

	out, err := New(zap.NewNop()).Run(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSkippedExists, out[0].Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old-content", string(data), "existing file untouched without force")
}

func TestRunForceOverwrites(t *testing.T) {
	t.Parallel()

	srv := serveArtifacts(t, "payload-v2")
	dir := t.TempDir()

	path := filepath.Join(dir, "A-1.torrent")
	require.NoError(t, os.WriteFile(path, []byte("old-content"), 0644))

	plan := []core.DownloadEntry{
		{Code: "A-1", TargetURL: srv.URL + "/download/1.torrent", LocalPath: path, Status: core.StatusPlanned},
	}

	out, err := New(zap.NewNop()).Run(context.Background(), plan, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, core.StatusDownloaded, out[0].Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload-v2", string(data))
}

func TestRunDryRun(t *testing.T) {
	t.Parallel()

	plan := []core.DownloadEntry{
		{Code: "A-1", TargetURL: "http://unreachable.invalid/1.torrent", LocalPath: "nowhere", Status: core.StatusPlanned},
	}

	out, err := New(zap.NewNop()).Run(context.Background(), plan, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPlanned, out[0].Status)
}

func TestRunAllFailed(t *testing.T) {
	t.Parallel()

	srv := serveArtifacts(t, "unused")
	dir := t.TempDir()

	plan := []core.DownloadEntry{
		{Code: "A-1", TargetURL: srv.URL + "/download/missing.torrent", LocalPath: filepath.Join(dir, "A-1.torrent"), Status: core.StatusPlanned},
		{Code: "A-2", TargetURL: srv.URL + "/download/missing2.torrent", LocalPath: filepath.Join(dir, "A-2.torrent"), Status: core.StatusPlanned},
	}

	out, err := New(zap.NewNop()).Run(context.Background(), plan, Options{})
	assert.ErrorIs(t, err, ErrAllFailed)
	assert.Equal(t, core.StatusFailed, out[0].Status)
	assert.Equal(t, core.StatusFailed, out[1].Status)
}
