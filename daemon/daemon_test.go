package daemon

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PID file locking is exercised on unix only")
	}
}

func TestGetDefaultLogDir(t *testing.T) {
	dir, err := GetDefaultLogDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, "strmlink", filepath.Base(dir))
}

func TestPIDFileLifecycle(t *testing.T) {
	skipIfWindows(t)
	logDir := filepath.Join(t.TempDir(), "state")

	pid, err := ReadPIDFile(logDir)
	require.NoError(t, err)
	assert.Zero(t, pid)

	require.NoError(t, WritePIDFile(logDir))

	pid, err = ReadPIDFile(logDir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, err := GetRunningPID(logDir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), running)

	require.NoError(t, RemovePIDFile(logDir))
	_, err = os.Stat(filepath.Join(logDir, pidFileName+".lock"))
	assert.True(t, os.IsNotExist(err))

	pid, err = ReadPIDFile(logDir)
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestReadPIDFile_InvalidContent(t *testing.T) {
	logDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(logDir, pidFileName), []byte("not-a-pid\n"), 0600))

	_, err := ReadPIDFile(logDir)
	assert.Error(t, err)
}

func TestGetRunningPID_CleansStaleFile(t *testing.T) {
	logDir := t.TempDir()
	pidPath := filepath.Join(logDir, pidFileName)
	require.NoError(t, os.WriteFile(pidPath, []byte("99999999\n"), 0600))

	if IsProcessRunning(99999999) {
		t.Skip("PID 99999999 unexpectedly exists")
	}

	pid, err := GetRunningPID(logDir)
	require.NoError(t, err)
	assert.Zero(t, pid)
	_, err = os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err))
}

func TestReadyFileLifecycle(t *testing.T) {
	logDir := t.TempDir()

	assert.False(t, IsReady(logDir))
	require.NoError(t, WriteReadyFile(logDir))
	assert.True(t, IsReady(logDir))
	require.NoError(t, RemoveReadyFile(logDir))
	assert.False(t, IsReady(logDir))
	require.NoError(t, RemoveReadyFile(logDir), "removing twice is fine")
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(0))
	assert.False(t, IsProcessRunning(-1))
}

func TestStopProcessInvalidPID(t *testing.T) {
	assert.Error(t, StopProcess(0))
	assert.Error(t, StopProcess(-5))
}

func TestSpawnBackgroundWithLogOpenError(t *testing.T) {
	_, _, err := spawnBackgroundWithLog(filepath.Join(t.TempDir(), "missing", "watch.log"), nil)
	assert.Error(t, err)
}

func TestIsBackground(t *testing.T) {
	t.Setenv(BackgroundEnv, "1")
	assert.True(t, IsBackground())
	t.Setenv(BackgroundEnv, "")
	assert.False(t, IsBackground())
}
