package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/strmlink/config"
	"github.com/yoanbernabeu/strmlink/daemon"
	"github.com/yoanbernabeu/strmlink/engine"
	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/scanner"
	"github.com/yoanbernabeu/strmlink/watcher"
)

var (
	watchNoRecursive bool
	watchBackground  bool
	watchLogDir      string
	watchStatus      bool
	watchStop        bool
	watchNoUI        bool
)

var (
	watchIsInteractiveTerminal = isInteractiveTerminal
	watchForegroundRunner      = runWatchForeground
	watchForegroundUIRunner    = runWatchForegroundUI
)

// watchTarget is one directory to watch.
type watchTarget struct {
	Path      string
	Recursive bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory...]",
	Short: "Link new pointer files as they appear",
	Long: `Watch library directories and link pointer files as soon as they are
created or moved in.

Directories come from the arguments or, when none are given, from
watch.directories in the configuration. Each directory gets an initial scan
unless watch.initial_scan is false.

Background mode:
  strmlink watch --background /media/tv   Run detached from the terminal
  strmlink watch --status                 Check if the background watcher is running
  strmlink watch --stop                   Stop the background watcher

The PID and log files live in $XDG_STATE_HOME/strmlink unless --log-dir is set.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoRecursive, "no-recursive", false, "Only watch the top level of each directory")
	watchCmd.Flags().BoolVar(&watchBackground, "background", false, "Run in background mode")
	watchCmd.Flags().StringVar(&watchLogDir, "log-dir", "", "Directory for PID and log files (default: XDG state dir)")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "Show background watcher status")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop the background watcher")
	watchCmd.Flags().BoolVar(&watchNoUI, "no-ui", false, "Disable interactive UI in foreground mode")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	activeFlags := 0
	for _, set := range []bool{watchBackground, watchStatus, watchStop} {
		if set {
			activeFlags++
		}
	}
	if activeFlags > 1 {
		return fmt.Errorf("flags --background, --status, and --stop are mutually exclusive")
	}

	logDir := watchLogDir
	if logDir == "" {
		var err error
		logDir, err = daemon.GetDefaultLogDir()
		if err != nil {
			return fmt.Errorf("failed to get default log directory: %w", err)
		}
	}

	if watchStatus {
		return showWatchStatus(cmd, logDir)
	}
	if watchStop {
		return stopWatchDaemon(cmd, logDir)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	targets, err := resolveWatchTargets(args, !watchNoRecursive, cfg)
	if err != nil {
		return err
	}

	if watchBackground {
		return startBackgroundWatch(cmd, logDir, targets)
	}

	// Background children write their own PID file; anything else must not
	// run next to one.
	if !daemon.IsBackground() {
		pid, err := daemon.GetRunningPID(logDir)
		if err != nil {
			return fmt.Errorf("failed to check running status: %w", err)
		}
		if pid > 0 {
			return fmt.Errorf("watcher is already running in background (PID %d)\nUse 'strmlink watch --stop' to stop it", pid)
		}
	}

	if shouldUseWatchUI(watchIsInteractiveTerminal(), watchNoUI, daemon.IsBackground()) {
		return watchForegroundUIRunner(cfg, targets)
	}
	return watchForegroundRunner(cmd, cfg, targets, logDir)
}

// resolveWatchTargets turns the arguments into absolute targets, falling
// back to the configured directories.
func resolveWatchTargets(args []string, recursive bool, cfg *config.Config) ([]watchTarget, error) {
	var targets []watchTarget
	if len(args) > 0 {
		for _, a := range args {
			targets = append(targets, watchTarget{Path: a, Recursive: recursive})
		}
	} else {
		for _, d := range cfg.Watch.Directories {
			targets = append(targets, watchTarget{Path: d.Path, Recursive: d.Recursive})
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no directories to watch: pass them as arguments or set watch.directories in the configuration")
	}

	for i := range targets {
		abs, err := filepath.Abs(targets[i].Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", targets[i].Path, err)
		}
		targets[i].Path = abs
	}
	return targets, nil
}

func showWatchStatus(cmd *cobra.Command, logDir string) error {
	out := cmd.OutOrStdout()
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	if pid == 0 {
		fmt.Fprintln(out, "Status: not running")
		fmt.Fprintf(out, "Log directory: %s\n", logDir)
		return nil
	}

	fmt.Fprintln(out, "Status: running")
	fmt.Fprintf(out, "PID: %d\n", pid)
	fmt.Fprintf(out, "Log directory: %s\n", logDir)
	fmt.Fprintf(out, "Log file: %s\n", daemon.LogFile(logDir))
	return nil
}

func stopWatchDaemon(cmd *cobra.Command, logDir string) error {
	out := cmd.OutOrStdout()
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}
	if pid == 0 {
		fmt.Fprintln(out, "No background watcher is running")
		return nil
	}

	fmt.Fprintf(out, "Stopping background watcher (PID %d)...\n", pid)
	if err := daemon.StopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}

	const shutdownTimeout = 30 * time.Second
	const shutdownPollInterval = 500 * time.Millisecond
	deadline := time.Now().Add(shutdownTimeout)
	lastProgress := time.Now()

	for time.Now().Before(deadline) {
		if !daemon.IsProcessRunning(pid) {
			break
		}
		if time.Since(lastProgress) >= 5*time.Second {
			fmt.Fprintln(out, "Waiting for graceful shutdown...")
			lastProgress = time.Now()
		}
		time.Sleep(shutdownPollInterval)
	}

	if daemon.IsProcessRunning(pid) {
		return fmt.Errorf("process did not stop within %v\nStill running? Try: kill -9 %d\nOr check logs at: %s",
			shutdownTimeout, pid, daemon.LogFile(logDir))
	}

	if err := daemon.RemovePIDFile(logDir); err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	fmt.Fprintln(out, "Background watcher stopped")
	return nil
}

// backgroundArgs rebuilds the command line for the detached child.
func backgroundArgs(targets []watchTarget) []string {
	args := []string{"watch", "--no-ui"}
	if watchNoRecursive {
		args = append(args, "--no-recursive")
	}
	if watchLogDir != "" {
		args = append(args, "--log-dir", watchLogDir)
	}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			args = append(args, "--config", abs)
		}
	}
	if logFile != "" {
		args = append(args, "--log-file", logFile)
	}
	for i := 0; i < verbosity; i++ {
		args = append(args, "-v")
	}
	for _, t := range targets {
		args = append(args, t.Path)
	}
	return args
}

func startBackgroundWatch(cmd *cobra.Command, logDir string, targets []watchTarget) error {
	out := cmd.OutOrStdout()
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to check running status: %w", err)
	}
	if pid > 0 {
		return fmt.Errorf("watcher is already running (PID %d)", pid)
	}

	childPID, exitCh, err := daemon.SpawnBackground(logDir, backgroundArgs(targets))
	if err != nil {
		return fmt.Errorf("failed to start background process: %w", err)
	}

	logPath := daemon.LogFile(logDir)
	const startupTimeout = 30 * time.Second
	const pollInterval = 250 * time.Millisecond
	deadline := time.Now().Add(startupTimeout)

	for time.Now().Before(deadline) {
		if daemon.IsReady(logDir) {
			fmt.Fprintf(out, "Background watcher started (PID %d)\n", childPID)
			fmt.Fprintf(out, "Logs: %s\n", logPath)
			fmt.Fprintf(out, "\nUse 'strmlink watch --status' to check status\n")
			fmt.Fprintf(out, "Use 'strmlink watch --stop' to stop the watcher\n")
			return nil
		}

		select {
		case <-exitCh:
			return fmt.Errorf("background process failed to start (check logs at %s)", logPath)
		default:
		}
		time.Sleep(pollInterval)
	}

	return fmt.Errorf("timeout waiting for process to become ready after %v (check logs at %s)", startupTimeout, logPath)
}

// startWatching subscribes every target, starts the service and runs the
// initial scans. onScan receives each scan report.
func startWatching(ctx context.Context, eng *engine.Engine, cfg *config.Config, targets []watchTarget, onScan func(*scanner.Report)) error {
	for _, t := range targets {
		if !eng.AddWatch(t.Path, t.Recursive) {
			return fmt.Errorf("cannot watch %s: not an existing directory", t.Path)
		}
	}
	if !eng.StartWatch() {
		return fmt.Errorf("failed to start the watch service")
	}

	if !cfg.Watch.InitialScan {
		return nil
	}
	for _, t := range targets {
		report, err := eng.Scan(ctx, t.Path, engine.ScanOptions{Recursive: t.Recursive})
		if err != nil {
			return fmt.Errorf("initial scan of %s failed: %w", t.Path, err)
		}
		if onScan != nil {
			onScan(report)
		}
	}
	return nil
}

func runWatchForeground(cmd *cobra.Command, cfg *config.Config, targets []watchTarget, logDir string) error {
	log := logging.GetLogger("watch")
	out := cmd.OutOrStdout()
	isBackgroundChild := daemon.IsBackground()

	if isBackgroundChild {
		if err := daemon.WritePIDFile(logDir); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() {
			if err := daemon.RemovePIDFile(logDir); err != nil {
				log.Warn().Err(err).Msg("Failed to remove PID file on exit")
			}
			if err := daemon.RemoveReadyFile(logDir); err != nil {
				log.Warn().Err(err).Msg("Failed to remove ready file on exit")
			}
		}()
	}

	ctx, cancel := context.WithCancel(cmdContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	stopCh := daemon.StopChannel()
	go func() {
		select {
		case <-sigChan:
			if !isBackgroundChild {
				fmt.Fprintln(out, "\nShutting down...")
			}
			log.Info().Msg("Shutting down")
			cancel()
		case <-stopCh:
			log.Info().Msg("Stop file detected, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	eng := newEngine(cfg)
	eng.AddSink(watcher.SinkFunc(func(ev watcher.Event) error {
		if isBackgroundChild {
			log.Info().Str("file", ev.File).Str("trigger", string(ev.Trigger)).
				Int("links", ev.Result.LinksCreated).Str("error", ev.Error).Msg("Pointer file handled")
			return nil
		}
		fmt.Fprintln(out, formatWatchEvent(ev))
		return nil
	}))
	defer eng.StopWatch()

	if !isBackgroundChild {
		for _, t := range targets {
			fmt.Fprintf(out, "Watching %s (recursive: %t)\n", t.Path, t.Recursive)
		}
	}

	err := startWatching(ctx, eng, cfg, targets, func(r *scanner.Report) {
		log.Info().Str("dir", r.Directory).Int("pointerFiles", r.TotalPointerFiles).
			Int("links", r.CreatedLinks).Int("errors", len(r.Errors)).Msg("Initial scan complete")
		if !isBackgroundChild {
			printScanReport(out, r)
		}
	})
	if err != nil {
		return err
	}

	if isBackgroundChild {
		if err := daemon.WriteReadyFile(logDir); err != nil {
			log.Warn().Err(err).Msg("Failed to write ready file")
		}
	} else {
		fmt.Fprintln(out, "\nWatching for changes... (Press Ctrl+C to stop)")
	}

	<-ctx.Done()
	return nil
}

func formatWatchEvent(ev watcher.Event) string {
	ts := mutedStyle.Render(ev.Timestamp.Format("15:04:05"))
	if ev.Type == watcher.EventFileError {
		return fmt.Sprintf("%s %s %s %s", ts, errorStyle.Render("x"), ev.File, mutedStyle.Render(ev.Error))
	}
	if ev.Result.LinksCreated == 0 {
		return fmt.Sprintf("%s %s %s %s", ts, mutedStyle.Render("="), ev.File, mutedStyle.Render("up to date"))
	}
	return fmt.Sprintf("%s %s %s (%d link(s), %s)", ts, successStyle.Render("+"), ev.File, ev.Result.LinksCreated, ev.Trigger)
}
