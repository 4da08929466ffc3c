package watcher

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/scanner"
)

// DefaultDebounceMs is the quiet period before buffered events are handled.
const DefaultDebounceMs = 500

// Subscription is one watched root.
type Subscription struct {
	ID        string `json:"id"`
	Directory string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// Status describes the service.
type Status struct {
	Running       bool           `json:"is_running"`
	Subscriptions []Subscription `json:"watch_directories"`
}

// Options configures a Service.
type Options struct {
	DebounceMs int
	IgnoreDirs []string
}

type subscription struct {
	Subscription
	watcher *Watcher
}

// Service manages the set of watched roots and their watchers.
type Service struct {
	handler *Handler
	opts    Options
	log     zerolog.Logger

	mu      sync.Mutex
	subs    map[string]*subscription
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService returns a stopped service that handles events with handler.
func NewService(handler *Handler, opts Options) *Service {
	if opts.DebounceMs <= 0 {
		opts.DebounceMs = DefaultDebounceMs
	}
	return &Service{
		handler: handler,
		opts:    opts,
		subs:    make(map[string]*subscription),
		log:     logging.GetLogger("watcher"),
	}
}

// Handler returns the event handler.
func (s *Service) Handler() *Handler { return s.handler }

// AddWatch subscribes dir. It returns false when dir is not an existing
// directory or its watcher cannot start. Adding a known directory returns
// true without creating a second subscription. While running, the new
// watch starts at once.
func (s *Service) AddWatch(dir string, recursive bool) bool {
	abs, err := linker.Canonicalize(dir)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.log.Warn().Str("directory", abs).Msg("Cannot watch: not a directory")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[abs]; ok {
		return true
	}

	sub := &subscription{Subscription: Subscription{
		ID:        uuid.NewString(),
		Directory: abs,
		Recursive: recursive,
	}}
	if s.running {
		if err := s.startLocked(sub); err != nil {
			s.log.Error().Err(err).Str("directory", abs).Msg("Failed to start watch")
			return false
		}
	}
	s.subs[abs] = sub
	s.log.Info().Str("directory", abs).Bool("recursive", recursive).Msg("Watch added")
	return true
}

// RemoveWatch unsubscribes dir. It returns false when dir was not watched.
func (s *Service) RemoveWatch(dir string) bool {
	abs, err := linker.Canonicalize(dir)
	if err != nil {
		return false
	}

	s.mu.Lock()
	sub, ok := s.subs[abs]
	if ok {
		delete(s.subs, abs)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	if sub.watcher != nil {
		_ = sub.watcher.Close()
	}
	s.log.Info().Str("directory", abs).Msg("Watch removed")
	return true
}

// Start begins watching every subscription. It returns false when there
// is nothing to watch or no watcher could start, and true when already
// running.
func (s *Service) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return true
	}
	if len(s.subs) == 0 {
		s.log.Warn().Msg("No directories to watch")
		return false
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	started := 0
	for _, sub := range s.subs {
		if err := s.startLocked(sub); err != nil {
			s.log.Error().Err(err).Str("directory", sub.Directory).Msg("Failed to start watch")
			continue
		}
		started++
	}
	if started == 0 {
		s.cancel()
		return false
	}

	s.running = true
	s.log.Info().Int("directories", started).Msg("Watch service started")
	return true
}

// Stop stops all watchers and waits for events being handled to finish.
// It returns true, including when the service was not running.
func (s *Service) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return true
	}
	s.running = false
	s.cancel()
	for _, sub := range s.subs {
		if sub.watcher != nil {
			_ = sub.watcher.Close()
			sub.watcher = nil
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("Watch service stopped")
	return true
}

// Status reports whether the service runs and lists the subscriptions
// ordered by directory.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, Subscriptions: make([]Subscription, 0, len(s.subs))}
	for _, sub := range s.subs {
		st.Subscriptions = append(st.Subscriptions, sub.Subscription)
	}
	sort.Slice(st.Subscriptions, func(i, j int) bool {
		return st.Subscriptions[i].Directory < st.Subscriptions[j].Directory
	})
	return st
}

// AddSink registers a sink on the handler.
func (s *Service) AddSink(sink Sink) SinkID { return s.handler.AddSink(sink) }

// RemoveSink unregisters a sink.
func (s *Service) RemoveSink(id SinkID) bool { return s.handler.RemoveSink(id) }

// startLocked starts the watcher for sub. s.mu must be held.
func (s *Service) startLocked(sub *subscription) error {
	matcher, err := scanner.NewIgnoreMatcher(sub.Directory, s.opts.IgnoreDirs)
	if err != nil {
		return err
	}
	w, err := NewWatcher(sub.Directory, sub.Recursive, matcher, s.opts.DebounceMs)
	if err != nil {
		return err
	}
	if err := w.Start(s.ctx); err != nil {
		_ = w.Close()
		return err
	}
	sub.watcher = w

	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case ev := <-w.Events():
				if ctx.Err() != nil {
					return
				}
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.handler.Handle(ev.Path, ev.Trigger)
				}()
			}
		}
	}()
	return nil
}
