package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/strmlink/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write config.yaml with the default kinds, scan and watch settings.

The file goes to $XDG_CONFIG_HOME/strmlink/config.yaml unless --config is set.
An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	out := cmd.OutOrStdout()

	if config.Exists(path) && !initForce {
		fmt.Fprintln(out, "strmlink is already configured.")
		fmt.Fprintf(out, "Configuration: %s\n", path)
		return nil
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(out, "Configuration written to %s\n", path)
	return nil
}
