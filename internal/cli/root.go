// Package cli holds the cobra command tree of the analyzer binary.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-log-analyzer/internal/config"
	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/store"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "nginx access-log report pipeline",
	Long: `Analyzes the newest unprocessed nginx access log (ui_short format),
aggregates per-URL request-time statistics and renders an HTML report.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config",
		"path to config file (KEY=value lines, or TOML for .toml files)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// setup loads the config file and opens the tracking database.
// Callers must close the store when done.
func setup() (model.RunSpec, error) {
	spec, err := config.Load(configPath)
	if err != nil {
		return spec, err
	}
	if err := store.InitDB(spec.DBPath); err != nil {
		return spec, err
	}
	return spec, nil
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
