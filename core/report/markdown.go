// Package report — Markdown renderer.
package report

import (
	"fmt"
	"strings"

	"github.com/rvalverde/rankpipe/core"
)

// MarkdownRenderer renders a report as a Markdown document.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render produces a pipe-table document with a summary section.
func (r *MarkdownRenderer) Render(rep *core.DownloadReport) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Download Report\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", rep.RunID, rep.GeneratedAt)

	b.WriteString("| # | Code | Numeric ID | Status | Local Path | Error |\n")
	b.WriteString("|---|------|-----------|--------|------------|-------|\n")
	for i, e := range rep.Entries {
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | %s |\n",
			i+1, e.Code, e.NumericID, e.Status, e.LocalPath, e.Error)
	}

	s := rep.Summary
	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- planned: %d\n", s.Planned)
	fmt.Fprintf(&b, "- downloaded: %d\n", s.Downloaded)
	fmt.Fprintf(&b, "- skipped-exists: %d\n", s.SkippedExists)
	fmt.Fprintf(&b, "- failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "- unresolved: %d\n", s.Unresolved)

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
