package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/config"
	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
	"github.com/rvalverde/rankpipe/core/download"
	"github.com/rvalverde/rankpipe/core/intersect"
	"github.com/rvalverde/rankpipe/core/output"
	"github.com/rvalverde/rankpipe/core/report"
)

var (
	flagNoDownload bool
	flagForce      bool
	flagRankFile   string
	flagCodesFile  string
)

var intersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Intersect both code sets and download the common artifacts",
	RunE:  runIntersect,
}

func init() {
	intersectCmd.Flags().BoolVar(&flagNoDownload, "no-download", false, "Plan only, skip the downloads")
	intersectCmd.Flags().BoolVar(&flagForce, "force", false, "Re-download artifacts that already exist")
	intersectCmd.Flags().StringVar(&flagRankFile, "rank-file", "", "Rank entries artifact (default <out>/"+output.RankFile+")")
	intersectCmd.Flags().StringVar(&flagCodesFile, "codes-file", "", "Extracted codes artifact (default <out>/"+output.CodesFile+")")
	rootCmd.AddCommand(intersectCmd)
}

func runIntersect(cmd *cobra.Command, _ []string) error {
	if err := pipeCfg.Require(config.KeySeedSource, config.KeyCodePrefix); err != nil {
		return err
	}
	persistCoreSettings()

	prefix, err := codes.Normalize(pipeCfg.CodePrefix)
	if err != nil {
		return err
	}

	rankPath := flagRankFile
	if rankPath == "" {
		rankPath = filepath.Join(pipeCfg.OutDir, output.RankFile)
	}
	codesPath := flagCodesFile
	if codesPath == "" {
		codesPath = filepath.Join(pipeCfg.OutDir, output.CodesFile)
	}

	var rankArt core.RankArtifact
	if err := output.ReadJSON(rankPath, &rankArt); err != nil {
		return err
	}
	var codesArt core.CodesArtifact
	if err := output.ReadJSON(codesPath, &codesArt); err != nil {
		return err
	}

	result := intersect.New().Intersect(rankArt.TopEntries, codesArt.Matches, prefix)
	common := result.Common
	if common == nil {
		common = []string{}
	}
	logger.Info("intersection computed",
		zap.Int("common", len(common)),
		zap.Int("resolved", len(result.Resolutions)))

	writer, err := output.New(pipeCfg.OutDir)
	if err != nil {
		return err
	}
	commonPath, err := writer.WriteJSON(output.CommonFile, &core.CommonArtifact{
		RunID:       runID(),
		GeneratedAt: nowStamp(),
		Codes:       common,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s (%d common codes)\n", commonPath, len(common))

	plan := download.Plan(result, pipeCfg.SeedSource, pipeCfg.OutDir)
	entries, runErr := download.New(logger).Run(cmd.Context(), plan, download.Options{
		DryRun: flagNoDownload,
		Force:  flagForce,
	})

	rep := &core.DownloadReport{
		RunID:       runID(),
		GeneratedAt: nowStamp(),
		Entries:     entries,
		Summary:     download.Summarize(entries, len(common)),
	}
	reportPath, err := writer.WriteJSON(output.ReportFile, rep)
	if err != nil {
		return err
	}

	s := rep.Summary
	fmt.Fprintf(os.Stdout, "✓ Written: %s (planned %d, downloaded %d, skipped %d, failed %d, unresolved %d)\n",
		reportPath, s.Planned, s.Downloaded, s.SkippedExists, s.Failed, s.Unresolved)
	if flagVerbose {
		if out, err := report.NewTableRenderer().Render(rep); err == nil {
			os.Stdout.Write(out)
		}
	}
	return runErr
}
