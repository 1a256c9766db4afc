package am

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/atomspace/errors"
)

// ConfigWatcher reloads one config file when it changes and hands the new
// configuration to the registered callbacks.
type ConfigWatcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	log            *zap.SugaredLogger
	callbacks      []ReloadCallback
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	done           chan struct{}
	stopOnce       sync.Once
}

// ReloadCallback is called when config is reloaded
// Receives the new config and returns any error
type ReloadCallback func(*Config) error

// NewConfigWatcher creates a watcher for configPath. The file's directory is
// watched so editors that replace the file on save are still seen.
func NewConfigWatcher(configPath string, log *zap.SugaredLogger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "resolve %s", configPath)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", configPath)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &ConfigWatcher{
		configPath:     abs,
		watcher:        watcher,
		log:            log,
		debouncePeriod: 500 * time.Millisecond, // Debounce rapid file changes
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

// watchLoop monitors file system events
func (cw *ConfigWatcher) watchLoop() {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.configPath {
				continue // backups and neighbours
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cw.log.Debugw("Config watcher detected change",
				"file", event.Name,
				"op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warnw("Config watcher error", "error", err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			cw.log.Errorw("Config reload failed", "path", cw.configPath, "error", err)
		}
	})
}

// reload reads the file again and calls every callback, even after one fails.
// An invalid file leaves the previous configuration in force.
func (cw *ConfigWatcher) reload() error {
	cfg, err := LoadFromFile(cw.configPath)
	if err != nil {
		return err
	}
	cw.log.Infow("Config reloaded", "path", cw.configPath)

	cw.mu.Lock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			cw.log.Warnw("Config reload callback error", "error", err)
		}
	}
	return nil
}

// Stop stops watching for config changes and cancels a pending reload.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		if cw.debounceTimer != nil {
			cw.debounceTimer.Stop()
		}
		cw.mu.Unlock()
		err = cw.watcher.Close()
	})
	return err
}

// Wait blocks until the watch loop has exited after Stop.
func (cw *ConfigWatcher) Wait() {
	<-cw.done
}
