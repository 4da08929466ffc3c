//go:build !windows

package fileutil

import (
	"fmt"
	"os"
	"syscall"
)

// TryLockExclusive takes an exclusive lock on f without blocking. It fails
// when another process already holds the lock.
func TryLockExclusive(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("failed to acquire exclusive lock: %w", err)
	}
	return nil
}

// Unlock releases a lock taken with TryLockExclusive.
func Unlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
