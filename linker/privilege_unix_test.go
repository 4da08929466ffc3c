//go:build !windows

package linker

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialize_PrivilegeFailureCarriesHint(t *testing.T) {
	dir := t.TempDir()
	denied := &os.LinkError{Op: "symlink", Old: "x", New: "y", Err: syscall.EPERM}

	m := NewMaterializer(
		failing(StrategySymlink, denied),
		failing(StrategyHardlink, errors.New("cross device")),
	)
	out := m.Materialize(Candidate{Source: "x", Destination: filepath.Join(dir, "dst")}, false)

	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, ErrPrivilegeRequired))
	assert.True(t, errors.Is(out.Err, ErrLinkCreationFailed))
	assert.Equal(t, KindPrivilegeRequired, out.ErrorKind)
	assert.Contains(t, out.Error, PrivilegeHint)
}

func TestMaterialize_PrivilegeFallbackSucceeds(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "x")
	denied := &os.LinkError{Op: "symlink", Old: "x", New: "y", Err: syscall.EACCES}

	m := NewMaterializer(failing(StrategySymlink, denied), Hardlink, Copy)
	out := m.Materialize(Candidate{Source: src, Destination: filepath.Join(dir, "dst")}, false)

	require.NoError(t, out.Err)
	assert.True(t, out.Created)
	assert.NotEqual(t, StrategySymlink, out.Strategy)
}
