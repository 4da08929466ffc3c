package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoanbernabeu/strmlink/config"
	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/watcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestEngine_ScanWithOverridesLeavesRegistryAlone(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Clip.(ts).strm"), "http://x")
	writeFile(t, filepath.Join(root, "Clip.edl"), "0 1 0")

	e := New(nil, Options{})
	report, err := e.Scan(context.Background(), root, ScanOptions{
		Recursive: true,
		Overrides: extensions.Overrides{PayloadKinds: []string{"ts"}, CompanionKinds: []string{"edl"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.CreatedLinks)
	assert.Empty(t, report.Errors)

	payload, companion := e.ListKinds()
	assert.NotContains(t, payload, ".ts")
	assert.NotContains(t, companion, ".edl")
}

func TestEngine_KindsAreSharedAcrossComponents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Clip.(ts).strm"), "http://x")

	e := New(nil, Options{})
	assert.True(t, e.AddPayloadKind("TS"))
	assert.False(t, e.AddPayloadKind(".ts"))

	report, err := e.Scan(context.Background(), root, ScanOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CreatedLinks)
}

func TestEngine_CleanupAfterSourceRemoved(t *testing.T) {
	root := t.TempDir()
	pointer := filepath.Join(root, "Show.(mp4).strm")
	writeFile(t, pointer, "http://x")

	e := New(nil, Options{})
	report, err := e.Scan(context.Background(), root, ScanOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.CreatedLinks)

	link := filepath.Join(root, "Show.mp4")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	if info.Mode()&os.ModeSymlink == 0 {
		t.Skip("links fell back to a non-symlink strategy")
	}

	require.NoError(t, os.Remove(pointer))
	res, err := e.Cleanup(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedCount)
}

func TestEngine_Watch(t *testing.T) {
	root := t.TempDir()
	e := FromConfig(&config.Config{
		Extensions: config.ExtensionsConfig{Payload: []string{"mp4"}, Companion: []string{"nfo"}},
		Watch:      config.WatchConfig{DebounceMs: 50},
	})

	got := make(chan watcher.Event, 4)
	e.AddSink(watcher.SinkFunc(func(ev watcher.Event) error {
		got <- ev
		return nil
	}))

	require.True(t, e.AddWatch(root, true))
	require.True(t, e.StartWatch())
	assert.True(t, e.WatchStatus().Running)

	writeFile(t, filepath.Join(root, "Movie.(mp4).strm"), "http://x")
	select {
	case ev := <-got:
		assert.Equal(t, watcher.EventFileProcessed, ev.Type)
	case <-time.After(10 * time.Second):
		t.Fatal("no watch event")
	}

	assert.True(t, e.StopWatch())
	assert.True(t, e.RemoveWatch(root))
	assert.Empty(t, e.WatchStatus().Subscriptions)
}
