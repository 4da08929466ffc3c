package linker

import (
	"os"
	"path/filepath"

	"github.com/yoanbernabeu/strmlink/internal/fileutil"
)

// Strategy names.
const (
	StrategySymlink  = "symlink"
	StrategyHardlink = "hardlink"
	StrategyCopy     = "copy"
)

// Strategy is one way of making destination expose source's content.
// Apply must fail with an fs.ErrExist error if destination already exists.
type Strategy struct {
	Name  string
	Apply func(source, destination string) error
}

// Symlink creates a symbolic link whose target is relative to the
// destination's directory.
var Symlink = Strategy{Name: StrategySymlink, Apply: symlinkRelative}

// Hardlink creates a hard link to source.
var Hardlink = Strategy{Name: StrategyHardlink, Apply: os.Link}

// Copy makes an exclusive byte copy of source.
var Copy = Strategy{Name: StrategyCopy, Apply: fileutil.CopyFileExclusive}

// DefaultStrategies is symlink, then hard link, then copy.
func DefaultStrategies() []Strategy {
	return []Strategy{Symlink, Hardlink, Copy}
}

func symlinkRelative(source, destination string) error {
	target, err := filepath.Rel(filepath.Dir(destination), source)
	if err != nil {
		target = source
	}
	return os.Symlink(target, destination)
}
