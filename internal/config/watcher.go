package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands every
// valid new Config to a callback. Invalid files are logged and skipped.
type Watcher struct {
	path     string
	current  *Config
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	logger   *slog.Logger
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a Watcher for the file cfg was loaded from.
func NewWatcher(cfg *Config, logger *slog.Logger, onReload func(*Config)) (*Watcher, error) {
	if cfg.filePath == "" {
		return nil, fmt.Errorf("config: watch: no config file")
	}
	path, err := filepath.Abs(cfg.filePath)
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}

	return &Watcher{
		path:     path,
		current:  cfg,
		watcher:  fw,
		onReload: onReload,
		logger:   logger.With("component", "config_watcher"),
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched so editors that
// replace the file through a rename are noticed.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", w.path, err)
	}
	w.logger.Info("watching config file", "path", w.path)
	go w.loop()
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "err", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) isConfigEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	return err == nil && name == w.path
}

func (w *Watcher) reload() {
	next, err := w.current.Reload()
	if err != nil {
		w.logger.Warn("config reload rejected; keeping previous config", "path", w.path, "err", err)
		return
	}
	w.current = next
	w.logger.Info("config reloaded", "path", w.path)
	w.onReload(next)
}
