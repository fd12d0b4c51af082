// Package library keeps the file picker in step with the directory it shows.
package library

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pes18fan/clickwheel/audio"
)

// ChangedMsg is sent when an audio file shows up in, leaves or is renamed
// within the watched directory.
type ChangedMsg struct {
	Dir  string
	Path string
}

// ErrorMsg carries a watcher failure to the UI.
type ErrorMsg struct {
	Err error
}

// Extensions lists the file types the picker offers.
func Extensions() []string {
	return audio.Extensions()
}

// IsAudio reports whether the picker should offer path.
func IsAudio(path string) bool {
	return audio.Supported(path)
}

// Watcher watches a single directory at a time.
type Watcher struct {
	w   *fsnotify.Watcher
	dir string
	log *zap.Logger
}

func NewWatcher(log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{w: w, log: log.Named("library")}, nil
}

func (lw *Watcher) Dir() string { return lw.dir }

// Watch moves the watch over to dir.
func (lw *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)
	if dir == lw.dir {
		return nil
	}
	if lw.dir != "" {
		if err := lw.w.Remove(lw.dir); err != nil {
			lw.log.Debug("failed to drop old watch", zap.String("dir", lw.dir), zap.Error(err))
		}
	}
	if err := lw.w.Add(dir); err != nil {
		lw.dir = ""
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	lw.dir = dir
	lw.log.Debug("watching", zap.String("dir", dir))
	return nil
}

// Next waits for the next relevant change. Like any listening command it has
// to be issued again after each message it returns.
func (lw *Watcher) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-lw.w.Events:
				if !ok {
					return nil
				}
				if !relevant(ev) {
					continue
				}
				lw.log.Debug("library changed", zap.Stringer("event", ev))
				return ChangedMsg{Dir: filepath.Dir(ev.Name), Path: ev.Name}
			case err, ok := <-lw.w.Errors:
				if !ok {
					return nil
				}
				return ErrorMsg{Err: err}
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return IsAudio(ev.Name)
}

func (lw *Watcher) Close() error {
	return lw.w.Close()
}
