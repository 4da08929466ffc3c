// Package daemon manages the lifecycle of a background `strmlink watch`
// process: the PID file, the ready marker, re-executing the binary
// detached from the terminal, and asking it to stop.
//
// The PID file holds a single line with the process ID as a decimal
// integer. Writes are serialized with an exclusive lock on a sibling
// ".lock" file that the running daemon keeps for its whole lifetime.
//
// Platform-specific behavior lives in daemon_unix.go and daemon_windows.go.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/adrg/xdg"

	"github.com/yoanbernabeu/strmlink/internal/fileutil"
)

const (
	pidFileName   = "strmlink-watch.pid"
	logFileName   = "strmlink-watch.log"
	readyFileName = "strmlink-watch.ready"

	// BackgroundEnv is set to "1" in the environment of a spawned daemon.
	BackgroundEnv = "STRMLINK_BACKGROUND"
)

// GetDefaultLogDir returns the directory holding the PID, ready and log
// files: $XDG_STATE_HOME/strmlink on every platform (adrg/xdg maps it to
// the platform's local state location). The directory may not exist yet.
func GetDefaultLogDir() (string, error) {
	dir := filepath.Join(xdg.StateHome, "strmlink")
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("state directory %q is not absolute", dir)
	}
	return dir, nil
}

// IsBackground reports whether this process was started by SpawnBackground.
func IsBackground() bool {
	return os.Getenv(BackgroundEnv) == "1"
}

var (
	lockMu   sync.Mutex
	heldLock *os.File
)

// WritePIDFile writes the current process ID to the PID file in logDir.
// It fails when another process holds the lock.
func WritePIDFile(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	pidPath := filepath.Join(logDir, pidFileName)
	lockFh, err := os.OpenFile(pidPath+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	if err := fileutil.TryLockExclusive(lockFh); err != nil {
		lockFh.Close()
		return fmt.Errorf("another strmlink watch process is running (lock held)")
	}

	content := fmt.Sprintf("%d\n", os.Getpid())
	if err := fileutil.WriteFileAtomically(pidPath, []byte(content), 0600); err != nil {
		lockFh.Close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// The lock is held until RemovePIDFile or process exit.
	lockMu.Lock()
	heldLock = lockFh
	lockMu.Unlock()
	return nil
}

func releaseLock() {
	lockMu.Lock()
	defer lockMu.Unlock()
	if heldLock == nil {
		return
	}
	_ = fileutil.Unlock(heldLock)
	_ = heldLock.Close()
	heldLock = nil
}

// ReadPIDFile returns the PID recorded in logDir, or 0 when there is no
// PID file. It does not check that the process is alive.
func ReadPIDFile(logDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(logDir, pidFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile releases the lock taken by WritePIDFile in this process,
// then removes the PID file and its lock file.
func RemovePIDFile(logDir string) error {
	releaseLock()
	pidPath := filepath.Join(logDir, pidFileName)
	_ = os.Remove(pidPath + ".lock")
	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// GetRunningPID returns the PID of the running daemon, or 0. A PID file
// left behind by a dead process is removed.
func GetRunningPID(logDir string) (int, error) {
	pid, err := ReadPIDFile(logDir)
	if err != nil || pid == 0 {
		return 0, err
	}
	if !IsProcessRunning(pid) {
		_ = RemovePIDFile(logDir)
		return 0, nil
	}
	return pid, nil
}

// WriteReadyFile marks the daemon as initialized: watches added and the
// initial scan done.
func WriteReadyFile(logDir string) error {
	content := fmt.Sprintf("ready\n%d\n", os.Getpid())
	if err := os.WriteFile(filepath.Join(logDir, readyFileName), []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write ready file: %w", err)
	}
	return nil
}

// RemoveReadyFile removes the ready marker.
func RemoveReadyFile(logDir string) error {
	if err := os.Remove(filepath.Join(logDir, readyFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ready file: %w", err)
	}
	return nil
}

// IsReady reports whether the ready marker exists.
func IsReady(logDir string) bool {
	_, err := os.Stat(filepath.Join(logDir, readyFileName))
	return err == nil
}

// LogFile returns the path the background process writes its output to.
func LogFile(logDir string) string {
	return filepath.Join(logDir, logFileName)
}

// SpawnBackground re-executes the current binary with args, detached, with
// output appended to LogFile(logDir) and BackgroundEnv set. The returned
// channel is closed when the child exits, so callers can detect early
// failures.
func SpawnBackground(logDir string, args []string) (int, <-chan struct{}, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return 0, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return spawnBackgroundWithLog(LogFile(logDir), args)
}

func spawnBackgroundWithLog(logPath string, args []string) (int, <-chan struct{}, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	liveness, err := newLivenessCheck()
	if err != nil {
		logFile.Close()
		return 0, nil, err
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.Env = append(os.Environ(), BackgroundEnv+"=1")
	cmd.SysProcAttr = sysProcAttr()
	liveness.configureCmd(cmd)

	if err := cmd.Start(); err != nil {
		logFile.Close()
		liveness.cleanup()
		return 0, nil, fmt.Errorf("failed to start background process: %w", err)
	}

	logFile.Close()
	return cmd.Process.Pid, liveness.start(cmd.Process.Pid), nil
}
