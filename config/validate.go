// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/contenthash-go/contenthash"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if _, err := contenthash.ParseAlgorithm(cfg.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAlgorithm, err)
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Workers)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// ParsedAlgorithm returns the parsed default algorithm of cfg.
func (cfg Config) ParsedAlgorithm() (contenthash.Algorithm, error) {
	alg, err := contenthash.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAlgorithm, err)
	}
	return alg, nil
}
