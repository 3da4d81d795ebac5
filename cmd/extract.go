package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/config"
	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
	"github.com/rvalverde/rankpipe/core/extract"
	"github.com/rvalverde/rankpipe/core/fetch"
	"github.com/rvalverde/rankpipe/core/output"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch the target page and extract identifier codes",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if err := pipeCfg.Require(config.KeyExtractURL, config.KeyCodePrefix); err != nil {
		return err
	}
	persistCoreSettings()

	prefix, err := codes.Normalize(pipeCfg.CodePrefix)
	if err != nil {
		return err
	}
	mode, err := extract.ParseMode(pipeCfg.ExtractMode)
	if err != nil {
		return err
	}

	// The target page renders server side, so a lightweight fetch is
	// always enough here.
	sel := fetch.NewSelector(fetch.SelectorConfig{
		Mode: fetch.ModeHTTP,
		HTTP: fetch.NewHTTP(),
		Log:  logger,
	})
	res, err := sel.Fetch(cmd.Context(), pipeCfg.ExtractURL)
	if err != nil {
		return err
	}

	warnings := []string{}
	if res.Gated {
		warnings = append(warnings, "page may be behind a verification gate")
	}

	result := extract.New().Extract(res.HTML, prefix, extract.Options{
		Mode:           mode,
		Limit:          pipeCfg.ExtractLimit,
		IncludeContext: pipeCfg.IncludeContext,
		BaseURL:        res.FinalURL,
	})
	warnings = append(warnings, result.Warnings...)
	matches := result.Matches
	if matches == nil {
		matches = []core.MatchRecord{}
	}
	logger.Info("codes extracted",
		zap.Int("matches", len(matches)),
		zap.String("mode", string(mode)))

	artifact := &core.CodesArtifact{
		RunID:       runID(),
		GeneratedAt: nowStamp(),
		SourceURL:   pipeCfg.ExtractURL,
		Mode:        string(mode),
		Limit:       pipeCfg.ExtractLimit,
		Matches:     matches,
		Summary:     result.Summary,
		Warnings:    warnings,
	}

	writer, err := output.New(pipeCfg.OutDir)
	if err != nil {
		return err
	}
	path, err := writer.WriteJSON(output.CodesFile, artifact)
	if err != nil {
		return err
	}
	saveDebugSnapshot(res)

	fmt.Fprintf(os.Stdout, "✓ Written: %s (%d codes)\n", path, len(matches))
	return nil
}
