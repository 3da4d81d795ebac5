// Package output writes the pipeline's JSON artifacts and debug
// snapshots. Each stage overwrites its artifact wholesale; downstream
// stages read them back from disk and never mutate them.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/rvalverde/rankpipe/core"
)

// Artifact filenames, fixed across runs.
const (
	RankFile   = "rank_entries.json"
	CodesFile  = "codes.json"
	CommonFile = "common_codes.json"
	ReportFile = "download_report.json"
)

// Writer writes JSON artifacts into a single output directory.
type Writer struct {
	Dir string
}

// New creates a Writer and ensures the directory exists.
func New(dir string) (*Writer, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// WriteJSON marshals v with indentation and writes it under the output
// directory, returning the full path.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// Path returns the full path an artifact name resolves to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// ReadJSON loads an artifact produced by an earlier stage. A missing or
// malformed file is a hard error naming the path.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", path, err)
	}
	return nil
}

// DebugWriter snapshots fetched pages for inspection: the lightweight
// body, the rendered body, and a readable Markdown rendition of
// whatever the pipeline actually parsed.
type DebugWriter struct {
	Dir string
}

// NewDebug creates a DebugWriter rooted at dir.
func NewDebug(dir string) *DebugWriter {
	return &DebugWriter{Dir: dir}
}

// Snapshot writes the debug bundle for one fetch result.
func (d *DebugWriter) Snapshot(res *core.FetchResult) error {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("creating debug directory: %w", err)
	}

	raw := res.RawHTML
	if res.Strategy == core.StrategyHTTP {
		raw = res.HTML
	}
	if raw != "" {
		if err := d.write("requests.html", raw); err != nil {
			return err
		}
	}
	if res.Strategy == core.StrategyBrowser {
		if err := d.write("rendered.html", res.HTML); err != nil {
			return err
		}
	}

	markdown, err := htmltomarkdown.ConvertString(res.HTML)
	if err != nil {
		return fmt.Errorf("converting page to markdown: %w", err)
	}
	return d.write("page.md", markdown)
}

func (d *DebugWriter) write(name, content string) error {
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}
