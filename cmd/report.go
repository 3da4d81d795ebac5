package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/output"
	"github.com/rvalverde/rankpipe/core/report"
)

var (
	flagReportFormat string
	flagReportFile   string
	flagReportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the last download report",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagReportFormat, "format", "table", "Output format: table, markdown, or pdf")
	reportCmd.Flags().StringVar(&flagReportFile, "report-file", "", "Download report artifact (default <out>/"+output.ReportFile+")")
	reportCmd.Flags().StringVar(&flagReportOut, "out-file", "", "Where to write the rendered report (table prints to stdout)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	renderer, err := selectRenderer(flagReportFormat)
	if err != nil {
		return err
	}

	path := flagReportFile
	if path == "" {
		path = filepath.Join(pipeCfg.OutDir, output.ReportFile)
	}
	var rep core.DownloadReport
	if err := output.ReadJSON(path, &rep); err != nil {
		return err
	}

	rendered, err := renderer.Render(&rep)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if flagReportOut == "" && renderer.Extension() == ".txt" {
		os.Stdout.Write(rendered)
		return nil
	}
	target := flagReportOut
	if target == "" {
		base := strings.TrimSuffix(output.ReportFile, filepath.Ext(output.ReportFile))
		target = filepath.Join(pipeCfg.OutDir, base+renderer.Extension())
	}
	if err := os.WriteFile(target, rendered, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", target)
	return nil
}

func selectRenderer(format string) (core.Renderer, error) {
	switch strings.ToLower(format) {
	case "table", "txt":
		return report.NewTableRenderer(), nil
	case "markdown", "md":
		return report.NewMarkdownRenderer(), nil
	case "pdf":
		return report.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown report format: %s (expected table, markdown, or pdf)", format)
	}
}
