package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddWatch(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	writeFile(t, file, "x")

	svc := NewService(newHandler(), Options{})

	assert.False(t, svc.AddWatch(filepath.Join(root, "missing"), true))
	assert.False(t, svc.AddWatch(file, true))

	assert.True(t, svc.AddWatch(root, true))
	assert.True(t, svc.AddWatch(root+string(filepath.Separator), false), "known directory")

	st := svc.Status()
	assert.False(t, st.Running)
	require.Len(t, st.Subscriptions, 1)
	assert.Equal(t, root, st.Subscriptions[0].Directory)
	assert.True(t, st.Subscriptions[0].Recursive, "re-adding does not change the subscription")
	assert.NotEmpty(t, st.Subscriptions[0].ID)

	assert.True(t, svc.RemoveWatch(root))
	assert.False(t, svc.RemoveWatch(root))
	assert.Empty(t, svc.Status().Subscriptions)
}

func TestService_StartStop(t *testing.T) {
	svc := NewService(newHandler(), Options{})

	assert.False(t, svc.Start(), "nothing to watch")
	assert.True(t, svc.Stop(), "stopping a stopped service is fine")

	require.True(t, svc.AddWatch(t.TempDir(), true))
	require.True(t, svc.Start())
	assert.True(t, svc.Start(), "already running")
	assert.True(t, svc.Status().Running)

	assert.True(t, svc.Stop())
	assert.False(t, svc.Status().Running)
}

func TestService_LinksNewPointerFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Season 1"), 0755))

	svc := NewService(newHandler(), Options{DebounceMs: 50})
	events := make(chan Event, 16)
	svc.AddSink(SinkFunc(func(ev Event) error {
		events <- ev
		return nil
	}))

	require.True(t, svc.AddWatch(root, true))
	require.True(t, svc.Start())
	defer svc.Stop()

	pointer := filepath.Join(root, "Season 1", "Show.S01E01.(mp4).strm")
	writeFile(t, pointer, "http://x")

	select {
	case ev := <-events:
		assert.Equal(t, EventFileProcessed, ev.Type)
		assert.Equal(t, pointer, ev.File)
	case <-time.After(10 * time.Second):
		t.Fatal("no event received")
	}

	_, err := os.Lstat(filepath.Join(root, "Season 1", "Show.S01E01.mp4"))
	assert.NoError(t, err)
}

func TestService_WatchAddedWhileRunning(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	svc := NewService(newHandler(), Options{DebounceMs: 50})
	require.True(t, svc.AddWatch(first, false))
	require.True(t, svc.Start())
	defer svc.Stop()

	require.True(t, svc.AddWatch(second, false))
	writeFile(t, filepath.Join(second, "Movie.(mkv).strm"), "http://x")

	assert.Eventually(t, func() bool {
		_, err := os.Lstat(filepath.Join(second, "Movie.mkv"))
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)
}
