package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileExclusive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.strm")
	dst := filepath.Join(dir, "dst.mp4")
	require.NoError(t, os.WriteFile(src, []byte("http://example/stream"), 0640))

	require.NoError(t, CopyFileExclusive(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "http://example/stream", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(dst)
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0640), info.Mode().Perm())
	}
}

func TestCopyFileExclusive_RefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := CopyFileExclusive(src, dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "existing file must not be touched")
}

func TestCopyFileExclusive_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")

	err := CopyFileExclusive(filepath.Join(dir, "missing"), dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Lstat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.yaml")

	require.NoError(t, WriteFileAtomically(path, []byte("one"), 0644))
	require.NoError(t, WriteFileAtomically(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestTryLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, TryLockExclusive(f))
	require.NoError(t, Unlock(f))
}
