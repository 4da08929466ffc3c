// Package linker turns parsed pointer files into filesystem links: it plans
// the links a pointer file needs, materializes them with a symlink, hard
// link, copy fallback and runs the whole single-file pipeline.
package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/strm"
)

// CandidateKind tells a video link from a companion link.
type CandidateKind string

const (
	KindVideo     CandidateKind = "video"
	KindCompanion CandidateKind = "companion"
)

// Candidate is one link that should exist.
type Candidate struct {
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Kind        CandidateKind `json:"kind"`
}

// VideoName is the name of the link that exposes a pointer file under its
// declared container extension.
func VideoName(pf strm.PointerFile) string {
	return pf.BaseName + "." + pf.DeclaredKind
}

// CompanionName is the name of the kind-qualified link for a companion
// extension such as ".nfo".
func CompanionName(pf strm.PointerFile, ext string) string {
	return pf.BaseName + ".(" + pf.DeclaredKind + ")" + ext
}

// Plan returns the candidates for pf. The video candidate comes first,
// followed by one candidate per companion sibling that exists as a regular
// file, in registry order.
func Plan(pf strm.PointerFile, reg *extensions.Registry) ([]Candidate, error) {
	candidates := []Candidate{{
		Source:      pf.Path,
		Destination: filepath.Join(pf.Dir, VideoName(pf)),
		Kind:        KindVideo,
	}}

	for _, ext := range reg.CompanionKinds() {
		sibling := filepath.Join(pf.Dir, pf.BaseName+ext)
		info, err := os.Lstat(sibling)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("plan %s: %w", pf.Path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:      sibling,
			Destination: filepath.Join(pf.Dir, CompanionName(pf, ext)),
			Kind:        KindCompanion,
		})
	}
	return candidates, nil
}
