// Package report — PDF renderer.
// Renders the download report as a styled PDF using gofpdf, one row per
// plan entry with a status-colored label.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/rvalverde/rankpipe/core"
)

// PDFRenderer renders a report as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the report into PDF bytes.
func (r *PDFRenderer) Render(rep *core.DownloadReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, "Download Report", "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, fmt.Sprintf("Run %s, generated %s", rep.RunID, rep.GeneratedAt), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	for i, e := range rep.Entries {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s (id %d)", i+1, e.Code, e.NumericID), "", "L", false)

		pdf.SetFont("Helvetica", "", 9)
		setStatusColor(pdf, e.Status)
		line := string(e.Status)
		if e.Error != "" {
			line += ": " + e.Error
		}
		pdf.MultiCell(0, 4.5, line, "", "L", false)
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont("Courier", "", 8)
		pdf.MultiCell(0, 4, e.LocalPath, "", "L", false)
		pdf.Ln(2)
	}

	s := rep.Summary
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("planned %d, downloaded %d, skipped %d, failed %d, unresolved %d",
		s.Planned, s.Downloaded, s.SkippedExists, s.Failed, s.Unresolved), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

func setStatusColor(pdf *gofpdf.Fpdf, status core.DownloadStatus) {
	switch status {
	case core.StatusDownloaded:
		pdf.SetTextColor(0, 128, 0)
	case core.StatusFailed:
		pdf.SetTextColor(180, 0, 0)
	case core.StatusSkippedExists:
		pdf.SetTextColor(120, 120, 120)
	default:
		pdf.SetTextColor(0, 0, 0)
	}
}
