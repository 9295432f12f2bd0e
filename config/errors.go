// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidAlgorithm indicates the algorithm name is not supported.
	ErrInvalidAlgorithm = errors.New("config: invalid algorithm")

	// ErrInvalidWorkers indicates the worker count is negative or not a number.
	ErrInvalidWorkers = errors.New("config: workers must be a non-negative integer")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config: config file not found")

	// ErrInvalidConfigLine indicates a line is not a valid key = value pair.
	ErrInvalidConfigLine = errors.New("config: invalid config line")
)
