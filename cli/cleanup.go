package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cleanupRecursive bool
	cleanupJSON      bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <directory>",
	Short: "Remove symbolic links whose targets are gone",
	Long: `Remove dangling symbolic links from a library directory.

Only symbolic links that point at a missing target are removed. Regular files,
directories, hard links, copies and working links are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupRecursive, "recursive", "r", true, "Descend into subdirectories (default from config)")
	cleanupCmd.Flags().BoolVar(&cleanupJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("recursive") {
		cleanupRecursive = cfg.Scan.Recursive
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := newEngine(cfg).Cleanup(ctx, args[0], cleanupRecursive)
	out := cmd.OutOrStdout()
	if err != nil {
		if cleanupJSON {
			_ = writeFailureJSON(out, err)
		}
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if cleanupJSON {
		return writeJSON(out, res)
	}
	printCleanupResult(out, res)
	return nil
}
