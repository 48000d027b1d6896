package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/frain-dev/pgtime/pkg/log"
)

const DefaultDebounce = 250 * time.Millisecond

// ConfigWatcher requests a reload when the config file changes. The parent
// directory is watched so that editors replacing the file by rename are seen.
type ConfigWatcher struct {
	logger   log.StdLogger
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
}

func NewConfigWatcher(logger log.StdLogger, path string, debounce time.Duration, onChange func()) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &ConfigWatcher{
		logger:   logger,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  w,
	}, nil
}

// Run blocks until ctx is done, then closes the watcher.
func (c *ConfigWatcher) Run(ctx context.Context) {
	defer func() {
		if err := c.watcher.Close(); err != nil {
			c.logger.WithError(err).Error("failed to close config watcher")
		}
	}()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(ev.Name) != c.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(c.debounce, func() {
				c.logger.WithFields(log.Fields{"path": c.path}).Info("config file changed, reloading")
				c.onChange()
			})
			mu.Unlock()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.WithError(err).Error("config watcher error")
		}
	}
}
