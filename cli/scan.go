package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/strmlink/engine"
	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/logging"
)

var (
	scanRecursive bool
	scanDryRun    bool
	scanWorkers   int
	scanPayload   []string
	scanCompanion []string
	scanJSON      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Create links for every pointer file in a directory",
	Long: `Scan a library directory for '<name>.(<kind>).strm' pointer files and create
the video and companion links each one needs.

Files whose names do not follow the pointer pattern are ignored. Pointer files
declaring an unregistered kind are reported as errors and the scan continues.
Running a scan twice is safe: the second run creates nothing.

Examples:
  strmlink scan /media/tv
  strmlink scan /media/tv --dry-run
  strmlink scan /media/movies --payload ts --companion edl --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "Descend into subdirectories (default from config)")
	scanCmd.Flags().BoolVarP(&scanDryRun, "dry-run", "n", false, "Report what would be created without writing")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Number of parallel workers (default from config)")
	scanCmd.Flags().StringSliceVar(&scanPayload, "payload", nil, "Extra payload kinds for this scan only")
	scanCmd.Flags().StringSliceVar(&scanCompanion, "companion", nil, "Extra companion kinds for this scan only")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logging.GetLogger("cli")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("recursive") {
		scanRecursive = cfg.Scan.Recursive
	}
	if scanWorkers > 0 {
		cfg.Scan.Workers = scanWorkers
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}

	eng := newEngine(cfg)
	log.Info().Str("dir", args[0]).Bool("recursive", scanRecursive).Bool("dryRun", scanDryRun).Msg("Starting scan")

	report, err := eng.Scan(ctx, args[0], engine.ScanOptions{
		Recursive: scanRecursive,
		DryRun:    scanDryRun,
		Overrides: extensions.Overrides{
			PayloadKinds:   scanPayload,
			CompanionKinds: scanCompanion,
		},
	})
	out := cmd.OutOrStdout()
	if err != nil {
		if scanJSON {
			_ = writeFailureJSON(out, err)
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanJSON {
		return writeJSON(out, report)
	}
	printScanReport(out, report)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
