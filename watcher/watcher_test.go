package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingTrigger(w *Watcher, path string) (Trigger, bool) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	ev, ok := w.pending[path]
	return ev.Trigger, ok
}

func TestHandleEvent_MoveTriggers(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "b")
	require.NoError(t, os.Mkdir(dir, 0755))
	touch := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("http://x"), 0644))
		return p
	}

	w, err := NewWatcher(root, false, nil, 60_000)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	tests := []struct {
		desc   string
		rename string
		create string
		want   Trigger
	}{
		{"rename elsewhere does not make a move", filepath.Join(root, "other", "unrelated.txt"), "New.(mp4).strm", TriggerCreated},
		{"same name from another directory", filepath.Join(root, "a", "Moved.(mp4).strm"), "Moved.(mp4).strm", TriggerMoved},
		{"rename in place", filepath.Join(dir, "Show.part"), "Show.(mkv).strm", TriggerMoved},
		{"no pending rename", "", "Later.(mp4).strm", TriggerCreated},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if tt.rename != "" {
				w.handleEvent(fsnotify.Event{Name: tt.rename, Op: fsnotify.Rename})
			}
			path := touch(tt.create)
			w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

			got, ok := pendingTrigger(w, path)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTakeRename_ConsumesOneAndExpires(t *testing.T) {
	w := &Watcher{}
	now := time.Now()

	w.recordRename("/lib/a/X.(mp4).strm", now)
	assert.True(t, w.takeRename("/lib/b/X.(mp4).strm", now))
	assert.False(t, w.takeRename("/lib/a/Y.(mp4).strm", now), "the matched rename is gone, old directory included")

	w.recordRename("/lib/a/Z.part", now)
	assert.False(t, w.takeRename("/lib/a/Z.(mp4).strm", now.Add(2*moveWindow)))
	assert.Empty(t, w.renames)
}
