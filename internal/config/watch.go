package config

import (
	"io"
	"path/filepath"
	"time"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// WatchDefaults re-reads the defaults section of the YAML file at path whenever it changes and merges it
// into registry. Keys removed from the file are kept in the registry, since defaults only ever merge.
// The returned closer stops the watcher.
func WatchDefaults(path string, registry *reqconfig.Registry, debounce time.Duration, log *zap.Logger) (io.Closer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// The directory is watched rather than the file so that editors replacing it by rename are seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}
		reload := func() {
			defaults, err := ReadDefaults(abs)
			if err != nil {
				log.Warn("defaults reload failed", zap.String("file", abs), zap.Error(err))
				return
			}
			if len(defaults) == 0 {
				return
			}
			registry.SetDefaults(defaults)
			log.Info("defaults reloaded", zap.String("file", abs), zap.Int("keys", len(defaults)))
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("defaults watcher error", zap.Error(err))
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) == abs && evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					resetTimer()
				}
			}
		}
	}()

	log.Info("defaults auto-reload enabled", zap.String("file", abs), zap.Duration("debounce", debounce))
	return closerFunc(func() error {
		close(stopCh)
		err := watcher.Close()
		<-doneCh
		return err
	}), nil
}
