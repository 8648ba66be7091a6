package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 1 << 20

	// Antivirus and indexers briefly lock freshly written files on Windows.
	renameAttempts  = 10
	renameRetryStep = 10 * time.Millisecond
)

// Load reads path over the defaults, so absent fields keep default values.
// A missing or empty file yields the defaults. On a YAML error the defaults
// are returned together with the error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path required")
	}
	raw, err := readCapped(path, maxConfigFileBytes)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return cfg, err
	case len(raw) == 0:
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, normalize(&cfg)
}

// EnsureFile loads path and, when the file does not exist yet, writes the
// loaded defaults there.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := Save(path, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save normalizes cfg and replaces path with it atomically. path must lie
// inside the default config directory. It returns what was written.
func Save(path string, cfg Config) (Config, error) {
	target, err := insideConfigDir(path)
	if err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	if err := normalize(&cfg); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := replaceFile(target, raw); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", target)
	return cfg, nil
}

var configDirFn = DefaultDataDir

func insideConfigDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("config path required")
	}
	target, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(configDirFn())
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q is outside %q", target, root)
	}
	return target, nil
}

// replaceFile writes data to a private temp file next to path, then renames
// it over path.
func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+configFileName+".tmp.*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] temp file cleanup failed", "path", tmp.Name(), "error", rmErr)
			}
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return renameRetrying(tmp.Name(), path)
}

func renameRetrying(from, to string) error {
	var err error
	for attempt := 1; attempt <= renameAttempts; attempt++ {
		if err = os.Rename(from, to); err == nil || runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt) * renameRetryStep)
	}
	return err
}

func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, limit)
	}
	return raw, nil
}
