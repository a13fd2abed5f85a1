package config

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/shipflow/gateway/internal/obslog"
)

// Overlay holds the subset of configuration a running gateway may change
// without a restart: log level and the cache kill-switch. Resilience
// knobs (timeouts, retry counts, breaker thresholds) are deliberately
// excluded: changing them live would let an operator silently alter
// failure-isolation behavior the rest of the system assumes is fixed.
type Overlay struct {
	LogLevel string `yaml:"log_level"`
	// CacheEnabled is a pointer so a file that omits the field leaves the
	// base value alone instead of resetting the kill-switch to false.
	CacheEnabled *bool `yaml:"cache_enabled"`
}

// OverlayWatcher applies an Overlay file's values on top of a base Config,
// reloading on write via fsnotify and exposing the merged result through
// an atomic pointer so readers never observe a half-applied update.
type OverlayWatcher struct {
	path    string
	base    *Config
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
	logger  *obslog.Logger
}

// NewOverlayWatcher loads path once and stores base merged with its
// contents as the initial current configuration.
func NewOverlayWatcher(path string, base *Config, logger *obslog.Logger) (*OverlayWatcher, error) {
	if logger == nil {
		logger = obslog.Nop()
	}
	w := &OverlayWatcher{path: path, base: base, logger: logger}

	merged, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current.Store(merged)
	return w, nil
}

// Get returns the current merged configuration.
func (w *OverlayWatcher) Get() *Config {
	return w.current.Load()
}

func (w *OverlayWatcher) load() (*Config, error) {
	data, err := readFileOrEmpty(w.path)
	if err != nil {
		return nil, err
	}

	merged := *w.base
	if len(data) == 0 {
		return &merged, nil
	}

	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, err
	}
	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}
	if overlay.CacheEnabled != nil {
		merged.Cache.Enabled = *overlay.CacheEnabled
	}
	return &merged, nil
}

// Watch starts watching the overlay file for writes, debouncing rapid
// changes the way editors that save-then-rename tend to produce.
func (w *OverlayWatcher) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	if err := watcher.Add(w.path); err != nil {
		_ = watcher.Close()
		return err
	}

	go w.watchLoop()
	return nil
}

func (w *OverlayWatcher) watchLoop() {
	const debounceDelay = 300 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config overlay watcher error", "error", err)
		}
	}
}

func (w *OverlayWatcher) reload() {
	merged, err := w.load()
	if err != nil {
		w.logger.Warn("failed to reload config overlay, keeping current", "error", err)
		return
	}
	w.current.Store(merged)
	w.logger.Info("config overlay reloaded", "log_level", merged.LogLevel, "cache_enabled", merged.Cache.Enabled)
}

// Close stops the file watcher, if one was started.
func (w *OverlayWatcher) Close() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func readFileOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
