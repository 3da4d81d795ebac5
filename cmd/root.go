// Package cmd implements the CLI commands for RankPipe using Cobra.
// Configuration follows one precedence everywhere: flags beat
// RANKPIPE_* environment values, which beat the config file.
package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/config"
	"github.com/rvalverde/rankpipe/logging"
)

var (
	flagConfigFile string
	flagVerbose    bool

	pipeCfg *config.Config
	logger  *zap.Logger
)

// flagBindings maps config keys to the persistent flags that override
// them.
var flagBindings = map[string]string{
	config.KeyRankURL:    "rank-url",
	config.KeyExtractURL: "extract-url",
	config.KeyCodePrefix: "prefix",
	config.KeySeedSource: "seed-source",
	"out_dir":            "out",
	"profile_dir":        "profile-dir",
	"fetch_mode":         "fetch-mode",
	"headless":           "headless",
	"rank_limit":         "rank-limit",
	"extract_mode":       "extract-mode",
	"extract_limit":      "extract-limit",
	"include_context":    "include-context",
	"save_debug":         "save-debug",
	"log_level":          "log-level",
}

var rootCmd = &cobra.Command{
	Use:   "rankpipe",
	Short: "RankPipe — extract, intersect, and download ranked item codes",
	Long: `RankPipe is a three-stage extraction pipeline:

  rank       fetch a ranking page and write normalized rank entries
  extract    fetch a target page and extract identifier codes
  intersect  intersect both code sets and download the common artifacts

Usage:
  rankpipe run [flags]`,
	PersistentPreRunE: initPipeline,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigFile, "config", config.DefaultFile, "Config file path")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging with console output")

	pf.String("rank-url", "", "Ranking page URL (stage 1)")
	pf.String("extract-url", "", "Target page URL (stage 2)")
	pf.String("prefix", "", "Identifier code prefix, e.g. \"item\" or \"video code\"")
	pf.String("seed-source", "", "Base URL artifacts are downloaded from (stage 3)")
	pf.String("out", "artifacts", "Output directory for artifacts")
	pf.String("profile-dir", ".rankpipe-profile", "Persistent browser profile directory")
	pf.String("fetch-mode", "auto", "Fetch strategy: auto, http, or browser")
	pf.Bool("headless", true, "Run the browser headless")
	pf.Int("rank-limit", 100, "Maximum rank entries to keep")
	pf.String("extract-mode", "unique", "Extraction mode: unique or all")
	pf.Int("extract-limit", 1000, "Maximum unique codes to keep")
	pf.Bool("include-context", false, "Attach context snippets to extracted codes")
	pf.Bool("save-debug", false, "Write fetched page snapshots next to the artifacts")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
}

// initPipeline merges configuration and builds the logger before any
// command runs.
func initPipeline(cmd *cobra.Command, _ []string) error {
	// .env first, so RANKPIPE_* values land in the environment.
	_ = godotenv.Load()

	v, err := config.Load(flagConfigFile)
	if err != nil {
		return err
	}
	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	pipeCfg = cfg

	level := cfg.LogLevel
	if flagVerbose {
		level = "debug"
	}
	log, err := logging.New(logging.Config{Level: level, Development: flagVerbose})
	if err != nil {
		return err
	}
	logger = log
	return nil
}

// persistCoreSettings writes the merged core settings back to the
// config file once they differ from what is stored, so later runs can
// omit the flags.
func persistCoreSettings() {
	persisted, err := config.ReadFile(flagConfigFile)
	if err != nil {
		logger.Warn("could not read config for write-back", zap.Error(err))
		return
	}
	if !pipeCfg.Changed(persisted) {
		return
	}
	if err := pipeCfg.WriteBack(flagConfigFile); err != nil {
		logger.Warn("could not persist config", zap.Error(err))
		return
	}
	logger.Info("config persisted", zap.String("path", flagConfigFile))
}

var (
	runIDOnce  sync.Once
	runIDValue string
)

// runID identifies one CLI invocation; every artifact written by the
// same invocation carries the same value.
func runID() string {
	runIDOnce.Do(func() {
		runIDValue = uuid.New().String()
	})
	return runIDValue
}

// nowStamp is the artifact timestamp format.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
