package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads a config file, re-running Load and invoking onChange
// with the freshly parsed Config whenever the file is written. Grounded on
// infrastructure/config/watcher.go; only non-structural tuning knobs (retry
// delay, TTL, batch window) are expected to actually change at runtime —
// callers that apply the reloaded Config are responsible for ignoring
// fields that require a process restart.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
}

// NewWatcher creates a Watcher for the config file at path.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: path, watcher: fw, logger: logger, done: make(chan struct{})}, nil
}

// Start begins watching in a background goroutine, calling onChange each time
// the file is (re)written. It stops when Close is called.
func (w *Watcher) Start(onChange func(*Config)) {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(w.path)
				if err != nil {
					w.logger.Warn("config reload failed, keeping previous config",
						zap.String("path", w.path), zap.Error(err))
					continue
				}
				w.logger.Info("config reloaded", zap.String("path", w.path))
				onChange(cfg)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", zap.Error(err))
			case <-w.done:
				return
			}
		}
	}()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
