package watcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/linker"
)

// EventType classifies a notification.
type EventType string

const (
	EventFileProcessed EventType = "file_processed"
	EventFileError     EventType = "file_error"
)

// Event is delivered to every sink after a pointer file has been handled.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Trigger   Trigger           `json:"trigger"`
	File      string            `json:"file"`
	Result    linker.FileResult `json:"result"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newEvent(trigger Trigger, res linker.FileResult) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      EventFileProcessed,
		Trigger:   trigger,
		File:      res.File,
		Result:    res,
		Timestamp: time.Now(),
	}
	if !res.Success {
		ev.Type = EventFileError
		ev.Error = res.Error
	}
	return ev
}

// Sink receives watch events. Notify runs synchronously on the handling
// goroutine, so slow sinks delay the release of that path.
type Sink interface {
	Notify(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

// Notify calls f.
func (f SinkFunc) Notify(ev Event) error { return f(ev) }

// SinkID identifies a registered sink.
type SinkID string

type sinkEntry struct {
	id   SinkID
	sink Sink
}

// sinkSet is the registration list. Sinks are called in registration order.
type sinkSet struct {
	mu      sync.RWMutex
	entries []sinkEntry
}

func (s *sinkSet) add(sink Sink) SinkID {
	id := SinkID(uuid.NewString())
	s.mu.Lock()
	s.entries = append(s.entries, sinkEntry{id: id, sink: sink})
	s.mu.Unlock()
	return id
}

func (s *sinkSet) remove(id SinkID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *sinkSet) snapshot() []sinkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sinkEntry(nil), s.entries...)
}

// notify calls every sink. A failing or panicking sink is logged and the
// remaining sinks still run.
func (s *sinkSet) notify(ev Event, log zerolog.Logger) {
	for _, e := range s.snapshot() {
		if err := callSink(e.sink, ev); err != nil {
			log.Error().Err(err).Str("sink", string(e.id)).Str("file", ev.File).Msg("Sink failed")
		}
	}
}

func callSink(sink Sink, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Notify(ev)
}
