package scanner

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-directory ignore file, in gitignore syntax.
const IgnoreFileName = ".strmignore"

// nestedMatcher holds a compiled ignore file and the directory it lives in,
// relative to the root.
type nestedMatcher struct {
	matcher *ignore.GitIgnore
	baseDir string
}

// IgnoreMatcher decides which paths under a root are skipped: directories
// whose base name is listed in the config, and paths matched by any
// .strmignore file at or above them. Hidden directories are scanned unless
// one of those rules names them.
type IgnoreMatcher struct {
	root     string
	dirNames map[string]struct{}
	nested   []nestedMatcher
}

// NewIgnoreMatcher walks root collecting .strmignore files. Directories
// named in dirNames are not descended into while collecting.
func NewIgnoreMatcher(root string, dirNames []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{
		root:     root,
		dirNames: make(map[string]struct{}, len(dirNames)),
	}
	for _, d := range dirNames {
		if d = strings.TrimSpace(d); d != "" {
			m.dirNames[d] = struct{}{}
		}
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && m.isSkippedDirName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != IgnoreFileName {
			return nil
		}
		gi, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil
		}
		if rel == "." {
			rel = ""
		}
		m.nested = append(m.nested, nestedMatcher{matcher: gi, baseDir: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IgnoreMatcher) isSkippedDirName(name string) bool {
	_, ok := m.dirNames[name]
	return ok
}

// ShouldSkipDir reports whether the directory at path (absolute or
// relative to the root) must not be descended into.
func (m *IgnoreMatcher) ShouldSkipDir(path string) bool {
	rel := m.rel(path)
	if rel == "" {
		return false
	}
	if m.isSkippedDirName(filepath.Base(path)) {
		return true
	}
	return m.matches(rel, true)
}

// ShouldIgnore reports whether the file at path is excluded.
func (m *IgnoreMatcher) ShouldIgnore(path string) bool {
	rel := m.rel(path)
	if rel == "" {
		return false
	}
	return m.matches(rel, false)
}

func (m *IgnoreMatcher) rel(path string) string {
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(m.root, path)
		if err != nil || r == "." || strings.HasPrefix(r, "..") {
			return ""
		}
		path = r
	}
	return filepath.ToSlash(path)
}

func (m *IgnoreMatcher) matches(rel string, isDir bool) bool {
	for _, nm := range m.nested {
		r := matcherRelPath(rel, nm.baseDir)
		if r == "" {
			continue
		}
		if nm.matcher.MatchesPath(r) || (isDir && nm.matcher.MatchesPath(r+"/")) {
			return true
		}
	}
	return false
}

// matcherRelPath returns rel relative to baseDir, or "" when rel is outside
// baseDir.
func matcherRelPath(rel, baseDir string) string {
	if baseDir == "" {
		return rel
	}
	if strings.HasPrefix(rel, baseDir+"/") {
		return strings.TrimPrefix(rel, baseDir+"/")
	}
	return ""
}
