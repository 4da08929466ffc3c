// Package strm parses pointer-file names of the form <base>.(<kind>).strm.
package strm

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yoanbernabeu/strmlink/extensions"
)

// Suffix is the extension every pointer file carries.
const Suffix = ".strm"

var (
	// ErrPatternMismatch means the name does not follow <base>.(<kind>).strm.
	ErrPatternMismatch = errors.New("name does not match <base>.(<kind>).strm")
	// ErrUnrecognizedKind means the syntax matched but the kind is not a
	// registered payload kind.
	ErrUnrecognizedKind = errors.New("unrecognized payload kind")
)

var pointerPattern = regexp.MustCompile(`(?i)^(.+)\.\(([^()./\\]+)\)\.strm$`)

// PointerFile is a parsed pointer file. Path is absolute when the input
// path was absolute.
type PointerFile struct {
	Path         string `json:"path"`
	Dir          string `json:"dir"`
	BaseName     string `json:"base_name"`
	DeclaredKind string `json:"declared_kind"`
}

// KindError reports a name whose kind token is not registered.
type KindError struct {
	Name string
	Kind string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %q is not a registered payload kind", e.Name, e.Kind)
}

func (e *KindError) Unwrap() error { return ErrUnrecognizedKind }

// LooksLikePointer reports whether name carries the .strm suffix.
func LooksLikePointer(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Suffix)
}

// MatchesSyntax reports whether name follows the pointer-file convention,
// regardless of which kind it declares.
func MatchesSyntax(name string) bool {
	return pointerPattern.MatchString(filepath.Base(name))
}

// ParseName splits a file name into base name and lowercase kind.
func ParseName(name string) (base, kind string, err error) {
	m := pointerPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", ErrPatternMismatch
	}
	return m[1], strings.ToLower(m[2]), nil
}

// Parse parses the pointer file at path against the payload kinds in reg.
func Parse(path string, reg *extensions.Registry) (PointerFile, error) {
	name := filepath.Base(path)
	base, kind, err := ParseName(name)
	if err != nil {
		return PointerFile{}, fmt.Errorf("%s: %w", name, err)
	}
	if !reg.IsPayloadKind(kind) {
		return PointerFile{}, &KindError{Name: name, Kind: kind}
	}
	return PointerFile{
		Path:         path,
		Dir:          filepath.Dir(path),
		BaseName:     base,
		DeclaredKind: kind,
	}, nil
}
