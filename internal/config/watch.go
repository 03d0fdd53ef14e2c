package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aether-shell/aether/internal/logging"
)

const debounceWindow = 250 * time.Millisecond

// Reloader re-reads a config file and remembers the last valid contents
type Reloader struct {
	path           string
	lastSerialized []byte
}

// NewReloader creates a reloader seeded with the bytes of the running config
func NewReloader(path string, serialized []byte) *Reloader {
	return &Reloader{
		path:           path,
		lastSerialized: append([]byte(nil), serialized...),
	}
}

// Reload parses the file again. On failure the previous config stays in
// effect and the rejected change is logged as a diff.
func (r *Reloader) Reload() (*Config, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	ext := filepath.Ext(r.path)
	format := "yaml"
	if ext == ".json" {
		format = "json"
	}

	cfg, err := LoadConfigFromBytes(raw, format)
	if err != nil {
		r.logDiff(raw)
		return nil, err
	}

	r.lastSerialized = append([]byte(nil), raw...)
	return cfg, nil
}

func (r *Reloader) logDiff(current []byte) {
	diff := DiffSerialized(r.lastSerialized, current)
	if diff == "" {
		logging.Warn().Str("path", r.path).Msg("config change rejected; unable to compute diff vs last valid config")
		return
	}
	logging.Warn().Str("path", r.path).Str("diff", diff).Msg("config change rejected")
}

// Watch calls onChange with each valid new version of the file at path
// until ctx is done. Bursts of writes are coalesced.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	full, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	full = filepath.Clean(full)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	// Editors replace files on save, so watch the directory too
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	seed, _ := os.ReadFile(full)
	reloader := NewReloader(full, seed)

	go func() {
		defer watcher.Close()
		watchLoop(ctx, watcher, full, func() {
			cfg, err := reloader.Reload()
			if err != nil {
				logging.Warn().Err(err).Msg("config reload failed, keeping previous config")
				return
			}
			logging.Info().Str("path", full).Msg("config reloaded")
			onChange(cfg)
		})
	}()

	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, fire func()) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			fire()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("config watcher error")
		}
	}
}
