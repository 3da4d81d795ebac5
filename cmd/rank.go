package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/config"
	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
	"github.com/rvalverde/rankpipe/core/fetch"
	"github.com/rvalverde/rankpipe/core/output"
	"github.com/rvalverde/rankpipe/core/rank"
)

// rankWindowDays is the trailing window the ranking page covers.
const rankWindowDays = 7

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Fetch the ranking page and write normalized rank entries",
	RunE:  runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	if err := pipeCfg.Require(config.KeyRankURL, config.KeyCodePrefix); err != nil {
		return err
	}
	persistCoreSettings()

	prefix, err := codes.Normalize(pipeCfg.CodePrefix)
	if err != nil {
		return err
	}

	artifact, res, err := buildRankArtifact(cmd.Context(), prefix)
	if err != nil {
		return err
	}

	writer, err := output.New(pipeCfg.OutDir)
	if err != nil {
		return err
	}
	path, err := writer.WriteJSON(output.RankFile, artifact)
	if err != nil {
		return err
	}
	saveDebugSnapshot(res)

	fmt.Fprintf(os.Stdout, "✓ Written: %s (%d entries)\n", path, len(artifact.TopEntries))
	return nil
}

// buildRankArtifact fetches the ranking page and normalizes it. The
// readiness probe asks the builder for a single entry, so the selector
// falls back to the browser whenever the lightweight fetch returns a
// page without usable rankings.
func buildRankArtifact(ctx context.Context, prefix codes.Prefix) (*core.RankArtifact, *core.FetchResult, error) {
	builder := rank.New()
	ready := func(html string) bool {
		entries, err := builder.Build(html, prefix, pipeCfg.RankURL, 1)
		return err == nil && len(entries) > 0
	}

	sel, err := newSelector(ready)
	if err != nil {
		return nil, nil, err
	}
	res, err := sel.Fetch(ctx, pipeCfg.RankURL)
	if err != nil {
		return nil, nil, err
	}

	warnings := []string{}
	if res.Gated {
		warnings = append(warnings, "page may be behind a verification gate")
	}

	entries, err := builder.Build(res.HTML, prefix, res.FinalURL, pipeCfg.RankLimit)
	if err != nil {
		if !errors.Is(err, rank.ErrNoEntries) {
			return nil, nil, err
		}
		logger.Warn("no rank entries found",
			zap.String("url", pipeCfg.RankURL),
			zap.String("strategy", string(res.Strategy)))
		warnings = append(warnings, "no rank entries found")
		entries = []core.RankEntry{}
	}
	logger.Info("rank entries built",
		zap.Int("entries", len(entries)),
		zap.String("strategy", string(res.Strategy)))

	now := time.Now().UTC()
	artifact := &core.RankArtifact{
		RunID:       runID(),
		GeneratedAt: now.Format(time.RFC3339),
		SourceURL:   pipeCfg.RankURL,
		WindowStart: now.AddDate(0, 0, -rankWindowDays).Format(time.RFC3339),
		WindowEnd:   now.Format(time.RFC3339),
		TopEntries:  entries,
		Warnings:    warnings,
	}
	return artifact, res, nil
}

// newSelector wires the two-strategy fetcher for pages that may need
// rendering.
func newSelector(ready fetch.ReadyFunc) (*fetch.Selector, error) {
	mode, err := fetch.ParseMode(pipeCfg.FetchMode)
	if err != nil {
		return nil, err
	}
	return fetch.NewSelector(fetch.SelectorConfig{
		Mode:     mode,
		HTTP:     fetch.NewHTTP(),
		Browser:  fetch.NewBrowser(pipeCfg.ProfileDir, pipeCfg.Headless, logger),
		Ready:    ready,
		Headless: pipeCfg.Headless,
		Log:      logger,
	}), nil
}

// saveDebugSnapshot writes the fetched page bundle when --save-debug is
// set. Snapshot failures never fail the stage.
func saveDebugSnapshot(res *core.FetchResult) {
	if !pipeCfg.SaveDebug || res == nil {
		return
	}
	dw := output.NewDebug(filepath.Join(pipeCfg.OutDir, "debug"))
	if err := dw.Snapshot(res); err != nil {
		logger.Warn("debug snapshot failed", zap.Error(err))
	}
}
