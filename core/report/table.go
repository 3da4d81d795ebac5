// Package report renders download reports for humans.
// The table renderer is the default for terminal output; the Markdown
// and PDF renderers produce files next to the JSON artifact.
package report

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rvalverde/rankpipe/core"
)

// TableRenderer renders a report as a bordered terminal table.
type TableRenderer struct{}

// NewTableRenderer creates a TableRenderer.
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// Render produces the table plus a one-line summary.
func (r *TableRenderer) Render(rep *core.DownloadReport) ([]byte, error) {
	var buf bytes.Buffer

	tw := table.NewWriter()
	tw.SetOutputMirror(&buf)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Code", "Numeric ID", "Status", "Local Path", "Error"})
	for i, e := range rep.Entries {
		tw.AppendRow(table.Row{i + 1, e.Code, e.NumericID, string(e.Status), e.LocalPath, e.Error})
	}
	tw.Render()

	s := rep.Summary
	fmt.Fprintf(&buf, "planned %d  downloaded %d  skipped %d  failed %d  unresolved %d\n",
		s.Planned, s.Downloaded, s.SkippedExists, s.Failed, s.Unresolved)

	return buf.Bytes(), nil
}

// Extension returns the file extension for table output.
func (r *TableRenderer) Extension() string {
	return ".txt"
}
