package repository

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

const debounceDelay = 350 * time.Millisecond

// ErrAlreadyWatching is returned by a second Watch call on the same repository.
var ErrAlreadyWatching = errors.New("config repository is already watching")

// ConfigRepository owns the replicator configuration file and reloads it on change.
type ConfigRepository struct {
	mu         sync.RWMutex
	configData config.FileConfig
	configPath string
	watcher    *fsnotify.Watcher
}

// NewConfigRepository creates a repository for the file at configPath.
func NewConfigRepository(configPath string) *ConfigRepository {
	return &ConfigRepository{configPath: configPath}
}

// Path returns the watched file path.
func (r *ConfigRepository) Path() string {
	return r.configPath
}

// LoadFromFile reads, completes and validates the configuration file.
func (r *ConfigRepository) LoadFromFile() (config.FileConfig, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return cfg, err
	}

	r.mu.Lock()
	r.configData = cfg
	r.mu.Unlock()
	return cfg, nil
}

// Current returns the last configuration successfully loaded.
func (r *ConfigRepository) Current() config.FileConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configData
}

// Save persists cfg to the configuration file, creating its directory if needed.
func (r *ConfigRepository) Save(cfg config.FileConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.configPath), 0755); err != nil {
		return err
	}
	if err := config.WriteConfig(r.configPath, cfg); err != nil {
		return err
	}
	r.configData = cfg
	return nil
}

// Watch sets a fsnotify watcher on the file for hot reload. onChange is called with the new
// configuration whenever the file changes into a valid configuration different from the current one.
func (r *ConfigRepository) Watch(onChange func(config.FileConfig)) error {
	r.mu.Lock()
	if r.watcher != nil {
		r.mu.Unlock()
		return ErrAlreadyWatching
	}
	r.mu.Unlock()

	abs, err := filepath.Abs(r.configPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(abs)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()

	go func() {
		reload := func() {
			for i := 0; i < 10; i++ {
				if _, err := os.Stat(abs); err == nil {
					break
				}
				time.Sleep(100 * time.Millisecond)
			}

			previous := r.Current()
			cfg, err := r.LoadFromFile()
			if err != nil {
				utils.Logger.Error("failed to reload config", "path", abs, "err", err)
				return
			}
			if fileConfigEqual(previous, cfg) {
				utils.Logger.Debug("config file touched without changes", "path", abs)
				return
			}
			utils.Logger.Info("config file changed", "path", abs)
			onChange(cfg)
		}

		var timer *time.Timer
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					if timer != nil {
						timer.Stop()
					}
					return
				}
				if ev.Name != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					if timer == nil {
						timer = time.AfterFunc(debounceDelay, reload)
					} else {
						timer.Reset(debounceDelay)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				utils.Logger.Warn("fsnotify error", "err", err)
			}
		}
	}()

	return nil
}

// Close stops watching the file.
func (r *ConfigRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	r.watcher = nil
	return err
}

// fileConfigEqual reports whether a and b would build the same engine, status server and exporters.
func fileConfigEqual(a, b config.FileConfig) bool {
	if !clusterConfigEqual(a.Source, b.Source) || !clusterConfigEqual(a.Destination, b.Destination) {
		return false
	}
	if !equalStrings(a.SkipTopics, b.SkipTopics) || a.GroupID != b.GroupID {
		return false
	}
	return a.BatchCommitSize == b.BatchCommitSize && a.HTTP == b.HTTP && a.Telemetry == b.Telemetry
}

// clusterConfigEqual compares cluster configurations
func clusterConfigEqual(a, b config.ClusterConfig) bool {
	if !equalStrings(a.Brokers, b.Brokers) || a.ClientID != b.ClientID {
		return false
	}
	if !equalTLS(a.TLS, b.TLS) || !equalSASL(a.SASL, b.SASL) {
		return false
	}
	if !equalAWS(a.AWS, b.AWS) || !equalOptions(a.Options, b.Options) {
		return false
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]int)
	for _, s := range a {
		m[s]++
	}
	for _, s := range b {
		if m[s] == 0 {
			return false
		}
		m[s]--
	}
	return true
}

func equalTLS(a, b *config.TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalSASL(a, b *config.SASLConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalAWS(a, b *config.AWSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalOptions(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if vb, ok := b[k]; !ok || vb != v {
			return false
		}
	}
	return true
}
