//go:build windows

package linker

import (
	"errors"
	"syscall"
)

// errorPrivilegeNotHeld is ERROR_PRIVILEGE_NOT_HELD.
const errorPrivilegeNotHeld = syscall.Errno(1314)

// isPrivilegeError reports whether a symlink failure means the process may
// not create symbolic links here.
func isPrivilegeError(err error) bool {
	return errors.Is(err, errorPrivilegeNotHeld) || errors.Is(err, syscall.ERROR_ACCESS_DENIED)
}
