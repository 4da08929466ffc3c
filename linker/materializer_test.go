package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(name string, err error) Strategy {
	return Strategy{Name: name, Apply: func(string, string) error { return err }}
}

func TestMaterialize_Symlink(t *testing.T) {
	requireSymlinks(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "Movie.(mp4).strm")
	writeFile(t, src, "http://x")
	dst := filepath.Join(dir, "Movie.mp4")

	out := NewMaterializer().Materialize(Candidate{Source: src, Destination: dst, Kind: KindVideo}, false)
	require.NoError(t, out.Err)
	assert.True(t, out.Created)
	assert.Equal(t, StrategySymlink, out.Strategy)

	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, "Movie.(mp4).strm", target, "target is relative")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "http://x", string(data))
}

func TestMaterialize_SkipsAnyExistingEntry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "new")

	fileDst := filepath.Join(dir, "file")
	writeFile(t, fileDst, "old")
	dirDst := filepath.Join(dir, "dir")
	require.NoError(t, os.Mkdir(dirDst, 0755))

	m := NewMaterializer()
	for _, dst := range []string{fileDst, dirDst} {
		out := m.Materialize(Candidate{Source: src, Destination: dst}, false)
		assert.True(t, out.SkippedExisting, dst)
		assert.False(t, out.Created)
		assert.NoError(t, out.Err)
	}

	data, err := os.ReadFile(fileDst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestMaterialize_DryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "x")
	before := listDir(t, dir)

	out := NewMaterializer().Materialize(Candidate{Source: src, Destination: filepath.Join(dir, "dst")}, true)
	assert.True(t, out.Created)
	assert.Equal(t, before, listDir(t, dir))
}

func TestMaterialize_FallsBackInOrder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "payload")
	dst := filepath.Join(dir, "dst")

	m := NewMaterializer(
		failing(StrategySymlink, errors.New("no symlinks")),
		failing(StrategyHardlink, errors.New("cross device")),
		Copy,
	)
	out := m.Materialize(Candidate{Source: src, Destination: dst}, false)
	require.NoError(t, out.Err)
	assert.Equal(t, StrategyCopy, out.Strategy)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestMaterialize_AllStrategiesFail(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer(
		failing(StrategySymlink, errors.New("a")),
		failing(StrategyHardlink, errors.New("b")),
	)
	out := m.Materialize(Candidate{Source: "x", Destination: filepath.Join(dir, "dst")}, false)

	require.Error(t, out.Err)
	assert.False(t, out.Created)
	assert.True(t, errors.Is(out.Err, ErrLinkCreationFailed))
	assert.False(t, errors.Is(out.Err, ErrPrivilegeRequired))
	assert.Equal(t, KindLinkCreationFailed, out.ErrorKind)

	var linkErr *LinkError
	require.ErrorAs(t, out.Err, &linkErr)
	assert.Len(t, linkErr.Attempts, 2)
}

func TestMaterialize_RaceIsNotRetried(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	m := NewMaterializer(
		failing(StrategySymlink, fmt.Errorf("symlink: %w", fs.ErrExist)),
		Strategy{Name: StrategyHardlink, Apply: func(string, string) error {
			calls++
			return nil
		}},
	)
	out := m.Materialize(Candidate{Source: "x", Destination: filepath.Join(dir, "dst")}, false)

	require.Error(t, out.Err)
	assert.Zero(t, calls, "later strategies must not run after EEXIST")

	var linkErr *LinkError
	require.ErrorAs(t, out.Err, &linkErr)
	assert.True(t, linkErr.Raced)
}

func TestMaterialize_CopyFallbackWithRealFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Show.nfo")
	writeFile(t, src, "<xml/>")
	dst := filepath.Join(dir, "Show.(mp4).nfo")

	m := NewMaterializer(Copy)
	out := m.Materialize(Candidate{Source: src, Destination: dst, Kind: KindCompanion}, false)
	require.NoError(t, out.Err)

	again := m.Materialize(Candidate{Source: src, Destination: dst, Kind: KindCompanion}, false)
	assert.True(t, again.SkippedExisting)
}
