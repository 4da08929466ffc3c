// Package reaper removes symbolic links whose targets no longer exist.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/logging"
)

// ErrDeletionFailed is linker.ErrDeletionFailed, re-exported for callers
// that only import this package.
var ErrDeletionFailed = linker.ErrDeletionFailed

// Result summarizes one cleanup run.
type Result struct {
	Success         bool     `json:"success"`
	Directory       string   `json:"directory"`
	RemovedCount    int      `json:"removed_count"`
	Removed         []string `json:"removed"`
	Errors          []string `json:"errors"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// Reaper deletes dangling links under a directory.
type Reaper struct {
	log zerolog.Logger
	// remove is os.Remove outside tests.
	remove func(string) error
}

// New returns a Reaper.
func New() *Reaper {
	return &Reaper{log: logging.GetLogger("reaper"), remove: os.Remove}
}

// Cleanup removes every symlink under dir whose target does not resolve.
// Regular files, directories and working links are left alone. A failed
// removal is recorded in Result.Errors and does not stop the walk.
func (r *Reaper) Cleanup(ctx context.Context, dir string, recursive bool) (*Result, error) {
	start := time.Now()

	root, err := linker.ValidateRoot(dir)
	if err != nil {
		return nil, err
	}

	r.log.Info().Str("directory", root).Bool("recursive", recursive).Msg("Cleanup started")
	res := &Result{
		Success:   true,
		Directory: root,
		Removed:   []string{},
		Errors:    []string{},
	}

	visit := func(path string, d fs.DirEntry) {
		if d.Type()&fs.ModeSymlink == 0 || !isDangling(path) {
			return
		}
		if err := r.remove(path); err != nil {
			msg := fmt.Errorf("%w: %s: %v", ErrDeletionFailed, path, err).Error()
			r.log.Error().Err(err).Str("path", path).Msg("Failed to remove stale link")
			res.Errors = append(res.Errors, msg)
			return
		}
		r.log.Info().Str("path", path).Msg("Removed stale link")
		res.RemovedCount++
		res.Removed = append(res.Removed, path)
	}

	if recursive {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root {
					return err
				}
				res.Errors = append(res.Errors, err.Error())
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				visit(path, d)
			}
			return nil
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(root)
		for _, e := range entries {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
				break
			}
			visit(filepath.Join(root, e.Name()), e)
		}
	}
	if err != nil {
		return nil, err
	}

	res.DurationSeconds = time.Since(start).Seconds()
	r.log.Info().
		Str("directory", root).
		Int("removed", res.RemovedCount).
		Int("errors", len(res.Errors)).
		Float64("duration_seconds", res.DurationSeconds).
		Msg("Cleanup completed")
	return res, nil
}

// isDangling reports whether the link at path points at nothing.
func isDangling(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
