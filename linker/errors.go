package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/yoanbernabeu/strmlink/strm"
)

// PrivilegeHint is attached to failures caused by a missing symlink privilege.
const PrivilegeHint = "run with elevated rights, or enable Developer Mode to allow symbolic links"

var (
	// ErrNotFound means the scan or cleanup root does not exist.
	ErrNotFound = errors.New("directory not found")
	// ErrNotADirectory means the root exists but is not a directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrPermissionDenied means the root cannot be read.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLinkCreationFailed means every link strategy failed for a candidate.
	ErrLinkCreationFailed = errors.New("link creation failed")
	// ErrPrivilegeRequired is a link creation failure caused by a missing
	// symlink privilege. Errors matching it also match ErrLinkCreationFailed.
	ErrPrivilegeRequired = errors.New("symbolic link privilege required")
	// ErrDeletionFailed means a stale link could not be removed.
	ErrDeletionFailed = errors.New("deletion failed")
)

// ErrorKind is a stable code for an error, used in reports and events.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindNotFound           ErrorKind = "not_found"
	KindNotADirectory      ErrorKind = "not_a_directory"
	KindPermissionDenied   ErrorKind = "permission_denied"
	KindPatternMismatch    ErrorKind = "pattern_mismatch"
	KindUnrecognizedKind   ErrorKind = "unrecognized_kind"
	KindLinkCreationFailed ErrorKind = "link_creation_failed"
	KindPrivilegeRequired  ErrorKind = "privilege_required"
	KindDeletionFailed     ErrorKind = "deletion_failed"
	KindUnknown            ErrorKind = "unknown"
)

// KindOf maps err to its ErrorKind. The most specific kind wins.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPrivilegeRequired):
		return KindPrivilegeRequired
	case errors.Is(err, ErrLinkCreationFailed):
		return KindLinkCreationFailed
	case errors.Is(err, ErrDeletionFailed):
		return KindDeletionFailed
	case errors.Is(err, strm.ErrUnrecognizedKind):
		return KindUnrecognizedKind
	case errors.Is(err, strm.ErrPatternMismatch):
		return KindPatternMismatch
	case errors.Is(err, ErrNotADirectory):
		return KindNotADirectory
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindUnknown
	}
}

// Attempt records one failed strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// LinkError reports a candidate that could not be materialized.
type LinkError struct {
	Destination string
	Attempts    []Attempt
	// Privilege is set when the first strategy failed for lack of the
	// symlink privilege.
	Privilege bool
	// Raced is set when the destination appeared while linking.
	Raced bool
}

func (e *LinkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "create link %s", e.Destination)
	if e.Raced {
		b.WriteString(": destination was created concurrently")
	}
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Strategy, a.Err)
	}
	if e.Privilege {
		fmt.Fprintf(&b, " (%s)", PrivilegeHint)
	}
	return b.String()
}

// Is matches ErrLinkCreationFailed, and ErrPrivilegeRequired when the
// privilege flag is set.
func (e *LinkError) Is(target error) bool {
	if target == ErrLinkCreationFailed {
		return true
	}
	return target == ErrPrivilegeRequired && e.Privilege
}

// Unwrap exposes every attempt's cause.
func (e *LinkError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
