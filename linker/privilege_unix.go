//go:build !windows

package linker

import (
	"errors"
	"syscall"
)

// isPrivilegeError reports whether a symlink failure means the process may
// not create symbolic links here.
func isPrivilegeError(err error) bool {
	return errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}
