// Package watcher reports changes to a music folder.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// DefaultDelay is how long the folder must stay quiet before a change is reported.
const DefaultDelay = time.Second

// Watcher calls a function once a watched folder has settled after a change.
type Watcher struct {
	fs        *fsnotify.Watcher
	root      string
	recursive bool
	delay     time.Duration
	onChange  func()

	wg sync.WaitGroup
}

// Start watches root (and its subdirectories when recursive is set).
// Bursts of events within delay are reported as a single change.
func Start(root string, recursive bool, delay time.Duration, onChange func()) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf("not a directory: %s", root)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}

	w := &Watcher{
		fs:        fsw,
		root:      root,
		recursive: recursive,
		delay:     delay,
		onChange:  onChange,
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	zlog.Info().Msgf("watcher: watching folder: path=%s recursive=%v", root, recursive)
	return w, nil
}

// addTree adds dir, and every subdirectory when recursive, to the watch list.
func (w *Watcher) addTree(dir string) error {
	if !w.recursive {
		return errors.Wrapf(w.fs.Add(dir), "failed to watch %s", dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			zlog.Warn().Err(err).Msgf("watcher: walk error: path=%s", path)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			zlog.Debug().Msgf("watcher: event: op=%s path=%s", event.Op, event.Name)

			if w.recursive && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						zlog.Warn().Err(err).Msg("watcher: failed to watch new directory")
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			zlog.Info().Msgf("watcher: folder changed: path=%s", w.root)
			w.onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			zlog.Error().Err(err).Msg("watcher: error")
		}
	}
}

// relevant drops attribute-only changes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	w.wg.Wait()
	return errors.Wrap(err, "failed to close watcher")
}
