package main

import (
	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/cli"
	"github.com/mattsonlyattack/cons/internal/logging"
	"github.com/mattsonlyattack/cons/pkg/config"
)

// Version is set during build.
var Version = "0.1.0"

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cons",
	Short: "A tag-graph note store with LLM-assisted enrichment",
	Long: `cons captures free-text notes, extracts and organizes tags into a
hierarchy, and retrieves notes through a dual-channel search that
fuses full-text matching with spreading activation over the tag graph.

Examples:
  cons add "Learning async Rust with tokio"
  cons search "concurrency patterns"
  cons graph-search --note 14
  cons tags
  cons tag-alias ml machine-learning
  cons hierarchy populate
  cons ask "what have I learned about rust?"
  cons doctor`,
	Version:           Version,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.Fatal(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level from config")
}

// loadConfig loads the on-disk configuration (or defaults), applies
// any CONS_*-prefixed environment overrides, and initializes the
// shared structured logger. It runs once before every subcommand.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})

	return nil
}
