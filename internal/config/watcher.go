package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wookiisky/think-bot/internal/logger"
)

// watchDebounce collapses the burst of write events most editors and the
// sync client produce for a single rewrite.
const watchDebounce = 250 * time.Millisecond

// Watcher watches the config file for external rewrites (typically by the
// sync client) and delivers a notification per settled change.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}
}

// Watch starts watching the config file backing cfg. The returned Watcher's
// Events channel receives one value per settled external change.
func Watch(cfg *Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path := cfg.Path()
	// Watch the directory rather than the file: atomic rename-over-write
	// replaces the inode, which would silently drop a file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go w.run(filepath.Base(path))
	return w, nil
}

// Events returns the channel that receives change notifications.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run(filename string) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Config: File event %s, debouncing reload", event.Op)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default:
				// A reload is already pending; dropping is fine.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config: Watcher error: %v", err)
		}
	}
}
