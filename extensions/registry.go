// Package extensions holds the sets of file extensions the link engine
// recognizes: payload kinds that a pointer file may declare, and companion
// kinds (metadata, subtitles, artwork, audio) that get kind-qualified links.
//
// A Registry is owned by one engine instance. Scans that need different
// extensions work on a Clone instead of mutating the shared value.
package extensions

import (
	"sort"
	"strings"
	"sync"
)

// DefaultPayloadKinds are the container formats recognized out of the box.
var DefaultPayloadKinds = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm",
}

// DefaultCompanionKinds are the sibling files associated with a pointer file.
var DefaultCompanionKinds = []string{
	// metadata
	".nfo",
	// subtitles
	".srt", ".ass", ".ssa", ".vtt", ".sub", ".idx",
	// artwork
	".jpg", ".jpeg", ".png", ".webp",
	// external audio tracks
	".mka", ".ac3", ".dts",
}

// Overrides lists extra kinds applied on top of a registry for a single scan.
type Overrides struct {
	PayloadKinds   []string `json:"payload_kinds,omitempty" yaml:"payload,omitempty"`
	CompanionKinds []string `json:"companion_kinds,omitempty" yaml:"companion,omitempty"`
}

// IsEmpty reports whether o adds nothing.
func (o Overrides) IsEmpty() bool {
	return len(o.PayloadKinds) == 0 && len(o.CompanionKinds) == 0
}

// Registry is a concurrency-safe pair of normalized extension sets.
// It only grows: there is no removal operation.
type Registry struct {
	mu        sync.RWMutex
	payload   map[string]struct{}
	companion map[string]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		payload:   make(map[string]struct{}),
		companion: make(map[string]struct{}),
	}
}

// NewDefault returns a registry seeded with DefaultPayloadKinds and
// DefaultCompanionKinds.
func NewDefault() *Registry {
	r := New()
	for _, k := range DefaultPayloadKinds {
		r.AddPayloadKind(k)
	}
	for _, k := range DefaultCompanionKinds {
		r.AddCompanionKind(k)
	}
	return r
}

// Normalize lower-cases token and prefixes a dot if it is missing.
// It returns "" for blank input.
func Normalize(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || token == "." {
		return ""
	}
	if !strings.HasPrefix(token, ".") {
		token = "." + token
	}
	return token
}

// AddPayloadKind registers a payload kind. It returns false when the token
// is blank or already present.
func (r *Registry) AddPayloadKind(token string) bool {
	return r.add(r.payload, token)
}

// AddCompanionKind registers a companion kind. It returns false when the
// token is blank or already present.
func (r *Registry) AddCompanionKind(token string) bool {
	return r.add(r.companion, token)
}

func (r *Registry) add(set map[string]struct{}, token string) bool {
	k := Normalize(token)
	if k == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := set[k]; ok {
		return false
	}
	set[k] = struct{}{}
	return true
}

// IsPayloadKind reports whether token (with or without leading dot) is a
// registered payload kind.
func (r *Registry) IsPayloadKind(token string) bool {
	k := Normalize(token)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.payload[k]
	return ok
}

// IsCompanionKind reports whether token is a registered companion kind.
func (r *Registry) IsCompanionKind(token string) bool {
	k := Normalize(token)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.companion[k]
	return ok
}

// PayloadKinds returns the payload kinds in sorted order.
func (r *Registry) PayloadKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.payload)
}

// CompanionKinds returns the companion kinds in sorted order.
func (r *Registry) CompanionKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.companion)
}

// ListKinds returns both sets in sorted order.
func (r *Registry) ListKinds() (payload, companion []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.payload), sortedKeys(r.companion)
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := New()
	for k := range r.payload {
		c.payload[k] = struct{}{}
	}
	for k := range r.companion {
		c.companion[k] = struct{}{}
	}
	return c
}

// WithOverrides returns r itself when o is empty, otherwise a clone of r
// with the override kinds added. r is never modified.
func (r *Registry) WithOverrides(o Overrides) *Registry {
	if o.IsEmpty() {
		return r
	}
	c := r.Clone()
	for _, k := range o.PayloadKinds {
		c.AddPayloadKind(k)
	}
	for _, k := range o.CompanionKinds {
		c.AddCompanionKind(k)
	}
	return c
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
