// cmd/dreamctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/storage"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	noColor    bool
	driver     string
	csvPath    string
	sqlitePath string
	lexicon    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "dreamctl",
		Short: "Dream bank command line tool",
		Long: `dreamctl analyzes Spanish dream narratives and works with the
submissions stored by the dream bank server.

Commands:
  analyze   Analyze a dream text
  stats     Aggregate the stored submissions
  export    Write the stored submissions as CSV or JSON`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&opts.driver, "storage", "", "storage driver (csv or sqlite), overrides STORAGE_DRIVER")
	flags.StringVar(&opts.csvPath, "csv", "", "CSV store path, overrides AKASHIA_CSV_PATH")
	flags.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite database path, overrides SQLITE_PATH")
	flags.StringVar(&opts.lexicon, "lexicon", "", "lexicon YAML replacing the built-in one")

	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dreamctl %s\n", config.Version)
		},
	}
}

// loadConfig reads the server configuration and applies the flag overrides
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.csvPath != "" {
		cfg.CSVPath = o.csvPath
		if o.driver == "" {
			cfg.StorageDriver = config.StorageCSV
		}
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
		if o.driver == "" {
			cfg.StorageDriver = config.StorageSQLite
		}
	}
	if o.driver != "" {
		cfg.StorageDriver = o.driver
	}
	if o.lexicon != "" {
		cfg.LexiconPath = o.lexicon
	}
	return cfg, nil
}

func (o *rootOptions) openStore() (*config.Config, storage.Store, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return cfg, store, nil
}
