// Package core defines the shared pipeline types and interfaces for RankPipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// Strategy identifies which fetch strategy produced a result.
type Strategy string

const (
	// StrategyNone means no fetch has been attempted yet.
	StrategyNone Strategy = ""
	// StrategyHTTP is the lightweight HTTP client fetch.
	StrategyHTTP Strategy = "http"
	// StrategyBrowser is the rendered fetch through a real browser.
	StrategyBrowser Strategy = "browser"
)

// FetchResult holds the page HTML and metadata from a fetch.
type FetchResult struct {
	URL        string   // requested URL
	FinalURL   string   // URL after redirects or client-side navigation
	StatusCode int      // HTTP status; zero for browser fetches
	HTML       string
	Strategy   Strategy // strategy that produced HTML
	Gated      bool     // verification-gate markers still present
	RawHTML    string   // lightweight fetch body kept when a rendered fetch superseded it
}

// RankEntry is one normalized row of a ranking page.
// Entries are immutable once a run completes.
type RankEntry struct {
	Rank        int    `json:"rank"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	ItemID      string `json:"item_id"`
	Link        string `json:"link"`
	MetricLabel string `json:"metric_label,omitempty"`
	MetricValue string `json:"metric_value,omitempty"`
}

// MatchRecord is one extracted identifier code occurrence.
// In unique mode Rank is the 1-based order of first appearance and Count is
// the total number of occurrences of the code; in all mode Rank is the
// 1-based sequence index and Count is unset.
type MatchRecord struct {
	Raw     string `json:"raw_match"`
	Code    string `json:"code"`
	Rank    int    `json:"rank"`
	Count   int    `json:"count,omitempty"`
	LinkURL string `json:"link_url,omitempty"`
	Context string `json:"context,omitempty"`
}

// ExtractSummary aggregates occurrence counts for an all-mode extraction.
type ExtractSummary struct {
	TotalOccurrences int `json:"total_occurrences"`
	UniqueTotal      int `json:"unique_total"`
}

// RankArtifact is the stage-1 output document.
type RankArtifact struct {
	RunID       string      `json:"run_id"`
	GeneratedAt string      `json:"generated_at"` // RFC3339 UTC
	SourceURL   string      `json:"source_url"`
	WindowStart string      `json:"window_start"`
	WindowEnd   string      `json:"window_end"`
	TopEntries  []RankEntry `json:"top_entries"`
	Warnings    []string    `json:"warnings"`
}

// CodesArtifact is the stage-2 output document.
type CodesArtifact struct {
	RunID       string          `json:"run_id"`
	GeneratedAt string          `json:"generated_at"`
	SourceURL   string          `json:"source_url"`
	Mode        string          `json:"mode"`
	Limit       int             `json:"limit"`
	Matches     []MatchRecord   `json:"matches"`
	Summary     *ExtractSummary `json:"summary,omitempty"`
	Warnings    []string        `json:"warnings"`
}

// CommonArtifact lists every code present in both stages, in stage-1 rank
// order. Codes without a resolvable numeric ID are still listed here.
type CommonArtifact struct {
	RunID       string   `json:"run_id"`
	GeneratedAt string   `json:"generated_at"`
	Codes       []string `json:"codes"`
}

// Resolution is the numeric identifier derived for a common code.
type Resolution struct {
	NumericID  int64  `json:"numeric_id"`
	SourceLink string `json:"source_link_url"`
}

// IntersectionResult is the outcome of intersecting stage-1 and stage-2
// code sets. Common preserves stage-1 rank order; Resolutions holds only
// the codes whose link URL yielded a numeric ID.
type IntersectionResult struct {
	Common      []string
	Resolutions map[string]Resolution
}

// DownloadStatus is the lifecycle state of one planned artifact download.
type DownloadStatus string

const (
	StatusPlanned       DownloadStatus = "planned"
	StatusSkippedExists DownloadStatus = "skipped-exists"
	StatusDownloaded    DownloadStatus = "downloaded"
	StatusFailed        DownloadStatus = "failed"
)

// DownloadEntry is one row of the stage-3 download plan.
type DownloadEntry struct {
	Code      string         `json:"code"`
	LinkURL   string         `json:"link_url"`
	NumericID int64          `json:"numeric_id"`
	TargetURL string         `json:"target_url"`
	LocalPath string         `json:"local_path"`
	Status    DownloadStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
}

// DownloadSummary counts plan outcomes. Unresolved counts common codes
// that never made it into the plan.
type DownloadSummary struct {
	Planned       int `json:"planned"`
	Downloaded    int `json:"downloaded"`
	SkippedExists int `json:"skipped_exists"`
	Failed        int `json:"failed"`
	Unresolved    int `json:"unresolved"`
}

// DownloadReport is the stage-3 output document. It is overwritten on
// every run, never merged.
type DownloadReport struct {
	RunID       string          `json:"run_id"`
	GeneratedAt string          `json:"generated_at"`
	Entries     []DownloadEntry `json:"entries"`
	Summary     DownloadSummary `json:"summary"`
}

// Fetcher retrieves a page for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Renderer converts a download report into a final output format.
type Renderer interface {
	Render(report *DownloadReport) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
