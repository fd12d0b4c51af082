package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAudio(t *testing.T) {
	assert.True(t, IsAudio("a.ogg"))
	assert.True(t, IsAudio("/music/Track.FLAC"))
	assert.False(t, IsAudio("a.txt"))
	assert.False(t, IsAudio("mp3"))
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".flac", ".mp3", ".ogg", ".wav"}, Extensions())
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "x.mp3", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "x.mp3", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "x.mp3", Op: fsnotify.Write}))
	assert.False(t, relevant(fsnotify.Event{Name: "x.txt", Op: fsnotify.Create}))
}

func waitMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher")
		return nil
	}
}

func TestWatcherReportsNewAudio(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	require.NoError(t, w.Watch(dir))
	assert.Equal(t, filepath.Clean(dir), w.Dir())

	cmd := w.Next()
	// not audio, skipped
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), nil, 0o644))

	msg := waitMsg(t, cmd)
	changed, ok := msg.(ChangedMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, filepath.Join(dir, "song.mp3"), changed.Path)
}

func TestWatchSwitchesDirectory(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	require.NoError(t, w.Watch(first))
	require.NoError(t, w.Watch(second))
	assert.Equal(t, filepath.Clean(second), w.Dir())

	cmd := w.Next()
	require.NoError(t, os.WriteFile(filepath.Join(first, "old.wav"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "new.wav"), nil, 0o644))

	changed, ok := waitMsg(t, cmd).(ChangedMsg)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "new.wav"), changed.Path)
}

func TestWatchMissingDirectory(t *testing.T) {
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "gone")))
	assert.Empty(t, w.Dir())
}
