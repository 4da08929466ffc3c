package watcher

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/logging"
	"github.com/yoanbernabeu/strmlink/strm"
)

// Handler runs the link pipeline for single pointer files reported by a
// watcher. A path already being handled is dropped, not queued.
type Handler struct {
	pipeline *linker.Pipeline
	sinks    sinkSet
	log      zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewHandler returns a handler for pipeline.
func NewHandler(pipeline *linker.Pipeline) *Handler {
	return &Handler{
		pipeline: pipeline,
		inFlight: make(map[string]struct{}),
		log:      logging.GetLogger("watcher"),
	}
}

// AddSink registers a sink and returns its id.
func (h *Handler) AddSink(s Sink) SinkID { return h.sinks.add(s) }

// RemoveSink unregisters a sink. It reports whether the id was known.
func (h *Handler) RemoveSink(id SinkID) bool { return h.sinks.remove(id) }

// Handle processes path and notifies the sinks. It returns false when the
// path was skipped: not a pointer file, not a regular file, or already in
// flight.
func (h *Handler) Handle(path string, trigger Trigger) bool {
	name := filepath.Base(path)
	if !strm.LooksLikePointer(name) || !strm.MatchesSyntax(name) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if !h.acquire(path) {
		h.log.Debug().Str("file", path).Msg("Already processing, dropping event")
		return false
	}
	defer h.release(path)

	res := h.pipeline.Process(path, false)
	if res.Success {
		h.log.Info().
			Str("file", path).
			Str("trigger", string(trigger)).
			Int("links_created", res.LinksCreated).
			Msg("Processed pointer file")
	} else {
		h.log.Warn().Str("file", path).Str("kind", string(res.ErrorKind)).Msg(res.Error)
	}

	h.sinks.notify(newEvent(trigger, res), h.log)
	return true
}

// InFlight returns how many paths are being handled.
func (h *Handler) InFlight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.inFlight)
}

func (h *Handler) acquire(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[path]; busy {
		return false
	}
	h.inFlight[path] = struct{}{}
	return true
}

func (h *Handler) release(path string) {
	h.mu.Lock()
	delete(h.inFlight, path)
	h.mu.Unlock()
}
