package sdk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ConfigFile stores a config as a JSON file, for running an app detached
// from Everything.
type ConfigFile[C any] struct {
	path  string
	codec *Codec[C]
}

// NewConfigFile creates a config file at path using codec.
func NewConfigFile[C any](path string, codec *Codec[C]) *ConfigFile[C] {
	return &ConfigFile[C]{path: path, codec: codec}
}

// Path returns the file path.
func (f *ConfigFile[C]) Path() string {
	return f.path
}

// Load reads the config. A missing file yields nil without error.
func (f *ConfigFile[C]) Load() (*C, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return f.codec.Unmarshal(string(data))
}

// Save writes the config atomically.
func (f *ConfigFile[C]) Save(cfg *C) error {
	s, err := f.codec.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(s); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Watch calls fn with the new config every time the file is written or
// replaced, until ctx is done. Unparsable contents are logged and skipped.
func (f *ConfigFile[C]) Watch(ctx context.Context, fn func(*C)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: Save replaces the file, which drops a file watch.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	name := filepath.Clean(f.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := f.Load()
			if err != nil {
				log.Warn().Err(err).Str("path", f.path).Msg("Ignoring config file change")
				continue
			}
			if cfg != nil {
				fn(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Config file watcher error")
		}
	}
}
