// Package engine ties the registry, the batch scanner, the stale-link
// reaper and the watch service into one value per library.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/config"
	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/reaper"
	"github.com/yoanbernabeu/strmlink/scanner"
	"github.com/yoanbernabeu/strmlink/watcher"
)

// ScanOptions controls Engine.Scan.
type ScanOptions struct {
	Recursive bool
	DryRun    bool
	Overrides extensions.Overrides
}

// Options configures a new Engine.
type Options struct {
	Workers    int
	DebounceMs int
	IgnoreDirs []string
}

// Engine owns one extension registry and the components that use it.
type Engine struct {
	registry *extensions.Registry
	pipeline *linker.Pipeline
	scanner  *scanner.Scanner
	reaper   *reaper.Reaper
	watch    *watcher.Service
	log      zerolog.Logger
}

// New returns an engine using reg. A nil reg means the default kinds.
func New(reg *extensions.Registry, opts Options) *Engine {
	if reg == nil {
		reg = extensions.NewDefault()
	}
	pipeline := linker.NewPipeline(reg)
	return &Engine{
		registry: reg,
		pipeline: pipeline,
		scanner:  scanner.New(pipeline, opts.Workers, opts.IgnoreDirs),
		reaper:   reaper.New(),
		watch: watcher.NewService(watcher.NewHandler(pipeline), watcher.Options{
			DebounceMs: opts.DebounceMs,
			IgnoreDirs: opts.IgnoreDirs,
		}),
		log: logging.GetLogger("engine"),
	}
}

// FromConfig builds an engine from a loaded configuration.
func FromConfig(cfg *config.Config) *Engine {
	return New(cfg.Registry(), Options{
		Workers:    cfg.Scan.Workers,
		DebounceMs: cfg.Watch.DebounceMs,
		IgnoreDirs: cfg.Ignore,
	})
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *extensions.Registry { return e.registry }

// Scan runs a batch scan of dir. Overrides apply to this scan only.
func (e *Engine) Scan(ctx context.Context, dir string, opts ScanOptions) (*scanner.Report, error) {
	defer logging.LogOperationStart(e.log.With().Str("dir", dir).Logger(), "scan")()
	so := scanner.Options{Recursive: opts.Recursive, DryRun: opts.DryRun}
	if !opts.Overrides.IsEmpty() {
		so.Registry = e.registry.WithOverrides(opts.Overrides)
	}
	return e.scanner.Scan(ctx, dir, so)
}

// Cleanup removes dangling links under dir.
func (e *Engine) Cleanup(ctx context.Context, dir string, recursive bool) (*reaper.Result, error) {
	defer logging.LogOperationStart(e.log.With().Str("dir", dir).Logger(), "cleanup")()
	return e.reaper.Cleanup(ctx, dir, recursive)
}

func (e *Engine) AddWatch(dir string, recursive bool) bool { return e.watch.AddWatch(dir, recursive) }
func (e *Engine) RemoveWatch(dir string) bool              { return e.watch.RemoveWatch(dir) }
func (e *Engine) StartWatch() bool                         { return e.watch.Start() }
func (e *Engine) StopWatch() bool                          { return e.watch.Stop() }
func (e *Engine) WatchStatus() watcher.Status              { return e.watch.Status() }

func (e *Engine) AddSink(s watcher.Sink) watcher.SinkID { return e.watch.AddSink(s) }
func (e *Engine) RemoveSink(id watcher.SinkID) bool     { return e.watch.RemoveSink(id) }

func (e *Engine) AddPayloadKind(token string) bool   { return e.registry.AddPayloadKind(token) }
func (e *Engine) AddCompanionKind(token string) bool { return e.registry.AddCompanionKind(token) }

// ListKinds returns the payload and companion kinds in sorted order.
func (e *Engine) ListKinds() (payload, companion []string) { return e.registry.ListKinds() }
