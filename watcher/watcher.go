// Package watcher keeps links current while a library changes: it turns
// filesystem notifications for pointer files into pipeline runs and tells
// registered sinks about the outcome.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/scanner"
	"github.com/yoanbernabeu/strmlink/strm"
)

// Trigger says how a pointer file appeared.
type Trigger string

const (
	TriggerCreated Trigger = "created"
	TriggerMoved   Trigger = "moved"
)

// FileEvent is a debounced notification for one pointer file.
type FileEvent struct {
	Trigger Trigger
	Path    string
}

// moveWindow is how soon after a rename a create is treated as the second
// half of a move. A create pairs with a rename that had the same base name
// or happened in the same directory.
const moveWindow = time.Second

// Watcher wraps fsnotify for one root directory.
type Watcher struct {
	root      string
	recursive bool
	watcher   *fsnotify.Watcher
	ignore    *scanner.IgnoreMatcher
	debounce  time.Duration
	events    chan FileEvent
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger

	// renames is only touched by the processEvents goroutine.
	renames []rename

	pending   map[string]FileEvent
	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher returns a watcher for root. With recursive set, every
// subdirectory not skipped by ignore is watched too, including ones created
// later.
func NewWatcher(root string, recursive bool, ignore *scanner.IgnoreMatcher, debounceMs int) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:      root,
		recursive: recursive,
		watcher:   fsw,
		ignore:    ignore,
		debounce:  time.Duration(debounceMs) * time.Millisecond,
		events:    make(chan FileEvent, 256),
		done:      make(chan struct{}),
		pending:   make(map[string]FileEvent),
		log:       logging.GetLogger("watcher").With().Str("root", root).Logger(),
	}, nil
}

// Start registers the directories and begins delivering events.
func (w *Watcher) Start(ctx context.Context) error {
	if w.recursive {
		if err := w.addRecursive(w.root, ""); err != nil {
			return err
		}
	} else if err := w.watcher.Add(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)
	return nil
}

// Events returns the debounced event stream.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

// addRecursive watches dir and every directory below it. When trigger is
// set, pointer files already present are reported too, which covers whole
// directories moved into the tree.
func (w *Watcher) addRecursive(dir string, trigger Trigger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && w.ignore != nil && w.ignore.ShouldSkipDir(path) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				w.log.Warn().Err(err).Str("path", path).Msg("Failed to watch directory")
			}
			return nil
		}
		if trigger != "" && w.wants(path) {
			w.debounceEvent(FileEvent{Trigger: trigger, Path: path})
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		if event.Has(fsnotify.Rename) {
			w.recordRename(event.Name, time.Now())
		}
		return
	}
	if !event.Has(fsnotify.Create) {
		return
	}

	trigger := TriggerCreated
	if w.takeRename(event.Name, time.Now()) {
		trigger = TriggerMoved
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if w.recursive && (w.ignore == nil || !w.ignore.ShouldSkipDir(event.Name)) {
			if err := w.addRecursive(event.Name, trigger); err != nil {
				w.log.Warn().Err(err).Str("path", event.Name).Msg("Failed to add new directory")
			}
		}
		return
	}

	if !w.wants(event.Name) {
		return
	}
	w.debounceEvent(FileEvent{Trigger: trigger, Path: event.Name})
}

type rename struct {
	name string
	dir  string
	at   time.Time
}

func (w *Watcher) recordRename(path string, now time.Time) {
	w.renames = append(w.expireRenames(now), rename{
		name: filepath.Base(path),
		dir:  filepath.Dir(path),
		at:   now,
	})
}

func (w *Watcher) expireRenames(now time.Time) []rename {
	kept := w.renames[:0]
	for _, r := range w.renames {
		if now.Sub(r.at) < moveWindow {
			kept = append(kept, r)
		}
	}
	return kept
}

// takeRename reports whether a create at path completes a recent rename,
// and consumes that rename. Same base name wins over same directory.
func (w *Watcher) takeRename(path string, now time.Time) bool {
	w.renames = w.expireRenames(now)
	name, dir := filepath.Base(path), filepath.Dir(path)

	match := -1
	for i, r := range w.renames {
		if r.name == name {
			match = i
			break
		}
		if match < 0 && r.dir == dir {
			match = i
		}
	}
	if match < 0 {
		return false
	}
	w.renames = append(w.renames[:match], w.renames[match+1:]...)
	return true
}

// wants reports whether path names a pointer file that is not ignored.
func (w *Watcher) wants(path string) bool {
	name := filepath.Base(path)
	if !strm.LooksLikePointer(name) || !strm.MatchesSyntax(name) {
		return false
	}
	return w.ignore == nil || !w.ignore.ShouldIgnore(path)
}

func (w *Watcher) debounceEvent(event FileEvent) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	// A move wins over a plain create for the same path.
	if existing, ok := w.pending[event.Path]; !ok || existing.Trigger != TriggerMoved {
		w.pending[event.Path] = event
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	events := make([]FileEvent, 0, len(w.pending))
	for _, event := range w.pending {
		events = append(events, event)
	}
	w.pending = make(map[string]FileEvent)
	w.pendingMu.Unlock()

	for _, event := range events {
		select {
		case w.events <- event:
		case <-w.done:
			return
		}
	}
}
