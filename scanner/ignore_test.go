package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcher_StrmignorePatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(`# trailers and samples
extras/
*.sample.*
`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Show", "Season 1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Show", IgnoreFileName), []byte("Season 2/\n"), 0644))

	m, err := NewIgnoreMatcher(root, []string{"@eaDir", ".Trash"})
	require.NoError(t, err)

	tests := []struct {
		path string
		dir  bool
		want bool
		desc string
	}{
		{"Show/Season 1/E01.(mp4).strm", false, false, "regular pointer file"},
		{"extras", true, true, "ignored directory"},
		{"Show/extras", true, true, "ignored directory below root"},
		{"Movie.sample.(mp4).strm", false, true, "sample pointer"},
		{"Show/Season 2", true, true, "nested ignore file"},
		{"Other/Season 2", true, false, "nested ignore file does not leak"},
		{"@eaDir", true, true, "configured directory name"},
		{".incoming", true, false, "hidden directory is scanned"},
		{".Trash", true, true, "configured hidden directory"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var got bool
			if tt.dir {
				got = m.ShouldSkipDir(tt.path)
			} else {
				got = m.ShouldIgnore(tt.path)
			}
			assert.Equal(t, tt.want, got, tt.path)
		})
	}
}

func TestIgnoreMatcher_RootIsNeverSkipped(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".hidden-root")
	require.NoError(t, os.Mkdir(root, 0755))

	m, err := NewIgnoreMatcher(root, []string{".git"})
	require.NoError(t, err)
	assert.False(t, m.ShouldSkipDir(root))
	assert.True(t, m.ShouldSkipDir(filepath.Join(root, ".git")))
	assert.False(t, m.ShouldSkipDir(filepath.Join(root, ".staging")))
}
