// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the contenthash configuration file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the settings shared by the contenthash tools.
type Config struct {
	DataDir      string // directory for the digest cache and manifest store
	Algorithm    string // default digest algorithm name
	Workers      int    // parallel block hashers; 0 means one per CPU
	CacheEnabled bool   // consult the digest cache for local files
	LogLevel     string // debug, info, warn or error
	LogFile      string // empty means stderr
}

// DefaultDataDir returns ~/.contenthash, or .contenthash in the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".contenthash"
	}
	return filepath.Join(home, ".contenthash")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:      DefaultDataDir(),
		Algorithm:    "sha256",
		Workers:      0,
		CacheEnabled: true,
		LogLevel:     "info",
		LogFile:      "",
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// CachePath returns the digest cache database location inside dataDir.
func CachePath(dataDir string) string {
	return filepath.Join(dataDir, "cache.db")
}

// StorePath returns the manifest store directory inside dataDir.
func StorePath(dataDir string) string {
	return filepath.Join(dataDir, "manifests")
}

// LoadConfig reads a key=value config file on top of DefaultConfig.
// Blank lines and lines starting with '#' are skipped; unknown keys are
// ignored so older binaries can read newer files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", err, lineNo, line)
		}
		if err := applyKey(&cfg, key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d", err, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// parseKeyValue splits a line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func applyKey(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "algorithm":
		cfg.Algorithm = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidWorkers, value)
		}
		cfg.Workers = n
	case "cache":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: cache = %q", ErrInvalidConfigLine, value)
		}
		cfg.CacheEnabled = b
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# contenthash configuration\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "algorithm = %s\n", cfg.Algorithm)
	fmt.Fprintf(&b, "workers = %d\n", cfg.Workers)
	fmt.Fprintf(&b, "cache = %t\n", cfg.CacheEnabled)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with CONTENTHASH_* environment variables.
// Empty values are ignored.
func ApplyEnv(cfg Config, env map[string]string) (Config, error) {
	if v := env["CONTENTHASH_DATA_DIR"]; v != "" {
		cfg.DataDir = v
	}
	if v := env["CONTENTHASH_ALGORITHM"]; v != "" {
		cfg.Algorithm = v
	}
	if v := env["CONTENTHASH_WORKERS"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: CONTENTHASH_WORKERS=%q", ErrInvalidWorkers, v)
		}
		cfg.Workers = n
	}
	if v := env["CONTENTHASH_LOG_LEVEL"]; v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// Environ returns the process environment as a map for ApplyEnv.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
