// Package download plans and fetches the artifacts for resolved codes.
// Downloads run sequentially in plan order; individual failures are
// recorded in the plan and never stop the run.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/core"
)

// ErrAllFailed reports a run in which every planned download failed.
var ErrAllFailed = errors.New("every planned download failed")

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Options control a download run.
type Options struct {
	DryRun bool // leave every entry planned, no network calls
	Force  bool // re-download files that already exist
}

// Plan builds the download plan for the resolved common codes,
// preserving their order. Artifacts land under <outDir>/seed/.
func Plan(result core.IntersectionResult, seedSource, outDir string) []core.DownloadEntry {
	base := strings.TrimRight(seedSource, "/")
	entries := make([]core.DownloadEntry, 0, len(result.Resolutions))
	for _, code := range result.Common {
		res, ok := result.Resolutions[code]
		if !ok {
			continue
		}
		entries = append(entries, core.DownloadEntry{
			Code:      code,
			LinkURL:   res.SourceLink,
			NumericID: res.NumericID,
			TargetURL: fmt.Sprintf("%s/download/%d.torrent", base, res.NumericID),
			LocalPath: filepath.Join(outDir, "seed", code+".torrent"),
			Status:    core.StatusPlanned,
		})
	}
	return entries
}

// Summarize tallies plan outcomes. commonTotal is the number of common
// codes before planning; the difference is reported as unresolved.
func Summarize(entries []core.DownloadEntry, commonTotal int) core.DownloadSummary {
	s := core.DownloadSummary{Unresolved: commonTotal - len(entries)}
	for _, e := range entries {
		switch e.Status {
		case core.StatusPlanned:
			s.Planned++
		case core.StatusDownloaded:
			s.Downloaded++
		case core.StatusSkippedExists:
			s.SkippedExists++
		case core.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Downloader fetches planned artifacts to local files.
type Downloader struct {
	client *resty.Client
	log    *zap.Logger
}

// New creates a Downloader.
func New(log *zap.Logger) *Downloader {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent)
	return &Downloader{client: client, log: log}
}

// Run executes the plan and returns it with statuses filled in.
// Existing files are skipped unless Force is set. The error is
// ErrAllFailed only when no entry succeeded or was skipped.
func (d *Downloader) Run(ctx context.Context, plan []core.DownloadEntry, opts Options) ([]core.DownloadEntry, error) {
	out := make([]core.DownloadEntry, len(plan))
	copy(out, plan)

	if opts.DryRun {
		return out, nil
	}

	failed := 0
	for i := range out {
		e := &out[i]

		if !opts.Force {
			if _, err := os.Stat(e.LocalPath); err == nil {
				e.Status = core.StatusSkippedExists
				d.log.Info("artifact exists, skipping",
					zap.String("code", e.Code), zap.String("path", e.LocalPath))
				continue
			}
		}

		if err := d.fetchFile(ctx, e.TargetURL, e.LocalPath); err != nil {
			failed++
			e.Status = core.StatusFailed
			e.Error = err.Error()
			d.log.Warn("download failed",
				zap.String("code", e.Code), zap.String("url", e.TargetURL), zap.Error(err))
			continue
		}
		e.Status = core.StatusDownloaded
		d.log.Info("artifact downloaded",
			zap.String("code", e.Code), zap.String("path", e.LocalPath))
	}

	if len(out) > 0 && failed == len(out) {
		return out, ErrAllFailed
	}
	return out, nil
}

func (d *Downloader) fetchFile(ctx context.Context, url, path string) error {
	resp, err := d.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode(), url)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(path, resp.Body(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
