package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvalverde/rankpipe/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all three stages: rank, extract, intersect",
	RunE:  runAll,
}

func init() {
	runCmd.Flags().BoolVar(&flagNoDownload, "no-download", false, "Plan only, skip the downloads")
	runCmd.Flags().BoolVar(&flagForce, "force", false, "Re-download artifacts that already exist")
	rootCmd.AddCommand(runCmd)
}

func runAll(cmd *cobra.Command, _ []string) error {
	err := pipeCfg.Require(
		config.KeyRankURL,
		config.KeyExtractURL,
		config.KeyCodePrefix,
		config.KeySeedSource,
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Plan:\n")
	fmt.Fprintf(os.Stdout, "  1. rank       %s\n", pipeCfg.RankURL)
	fmt.Fprintf(os.Stdout, "  2. extract    %s\n", pipeCfg.ExtractURL)
	fmt.Fprintf(os.Stdout, "  3. intersect  prefix %q, seed %s\n", pipeCfg.CodePrefix, pipeCfg.SeedSource)
	fmt.Fprintf(os.Stdout, "  out: %s\n", pipeCfg.OutDir)

	if err := runRank(cmd, nil); err != nil {
		return fmt.Errorf("rank stage: %w", err)
	}
	if err := runExtract(cmd, nil); err != nil {
		return fmt.Errorf("extract stage: %w", err)
	}
	if err := runIntersect(cmd, nil); err != nil {
		return fmt.Errorf("intersect stage: %w", err)
	}
	return nil
}
