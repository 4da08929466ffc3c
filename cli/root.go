// Package cli implements the strmlink command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/strmlink/config"
	"github.com/yoanbernabeu/strmlink/engine"
	"github.com/yoanbernabeu/strmlink/logging"
)

var (
	verbosity  int
	configPath string
	logFile    string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "strmlink",
	Short: "Link .strm pointer files into a media library",
	Long: `strmlink makes media servers see streamed titles as ordinary videos.

For every pointer file named '<name>.(<kind>).strm' it creates '<name>.<kind>'
next to it, and for every sibling metadata, subtitle, artwork or audio file
'<name><ext>' it creates '<name>.(<kind>)<ext>'. Existing files are never
overwritten. Links are symbolic where possible, then hard links, then copies.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		path := logFile
		if path == "" {
			if cfg, err := config.LoadOrDefault(configPath); err == nil {
				path = cfg.Log.File
			}
		}
		logging.SetupLogger(verbosity, path)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/strmlink/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file (default: $XDG_STATE_HOME/strmlink/strmlink.log)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by --version and the MCP server.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newEngine(cfg *config.Config) *engine.Engine {
	return engine.FromConfig(cfg)
}
