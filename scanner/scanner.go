// Package scanner runs the link pipeline over every pointer file under a
// directory with a fixed pool of workers and a single aggregator.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/strm"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 4

// Options controls one scan.
type Options struct {
	Recursive bool
	DryRun    bool
	// Registry replaces the pipeline's registry for this scan only.
	Registry *extensions.Registry
}

// Scanner walks directories and feeds pointer files to a pipeline.
type Scanner struct {
	pipeline   *linker.Pipeline
	workers    int
	ignoreDirs []string
	log        zerolog.Logger
}

// New returns a scanner using workers goroutines. A non-positive count
// means DefaultWorkers. Directories named in ignoreDirs are never visited.
func New(pipeline *linker.Pipeline, workers int, ignoreDirs []string) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scanner{
		pipeline:   pipeline,
		workers:    workers,
		ignoreDirs: ignoreDirs,
		log:        logging.GetLogger("scanner"),
	}
}

// Scan processes every pointer file under dir. Directory-level problems
// (missing, not a directory, unreadable) abort the scan; per-file failures
// are recorded in the report. If ctx is cancelled Scan returns ctx.Err()
// and no report.
func (s *Scanner) Scan(ctx context.Context, dir string, opts Options) (*Report, error) {
	start := time.Now()

	root, err := linker.ValidateRoot(dir)
	if err != nil {
		return nil, err
	}

	files, err := s.Discover(ctx, root, opts.Recursive)
	if err != nil {
		return nil, err
	}

	pipeline := s.pipeline
	if opts.Registry != nil {
		pipeline = pipeline.WithRegistry(opts.Registry)
	}

	s.log.Info().
		Str("directory", root).
		Int("pointer_files", len(files)).
		Int("workers", s.workers).
		Bool("recursive", opts.Recursive).
		Bool("dry_run", opts.DryRun).
		Msg("Scan started")

	report := newReport(root, opts.DryRun, len(files))
	results := make(chan linker.FileResult)
	done := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan string)

	g.Go(func() error {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for path := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := pipeline.Process(path, opts.DryRun)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		done <- g.Wait()
		close(results)
	}()

	for res := range results {
		report.add(res)
		if !res.Success {
			s.log.Warn().Str("file", res.File).Str("kind", string(res.ErrorKind)).Msg(res.Error)
		}
	}

	if err := <-done; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.DurationSeconds = time.Since(start).Seconds()
	s.log.Info().
		Str("directory", root).
		Int("processed", report.Processed).
		Int("created", report.CreatedLinks).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Float64("duration_seconds", report.DurationSeconds).
		Msg("Scan completed")

	return report, nil
}

// Discover lists the pointer files under root in lexical order. Names with
// the .strm suffix that do not follow the naming convention are left out.
func (s *Scanner) Discover(ctx context.Context, root string, recursive bool) ([]string, error) {
	matcher, err := NewIgnoreMatcher(root, s.ignoreDirs)
	if err != nil {
		return nil, err
	}

	var files []string
	keep := func(path string, d fs.DirEntry) {
		if !strm.LooksLikePointer(d.Name()) || !strm.MatchesSyntax(d.Name()) {
			return
		}
		if matcher.ShouldIgnore(path) || !isFile(path, d) {
			return
		}
		files = append(files, path)
	}

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				keep(filepath.Join(root, e.Name()), e)
			}
		}
		return files, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			s.log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && matcher.ShouldSkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		keep(path, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// isFile reports whether path is a regular file, following a symlink.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
