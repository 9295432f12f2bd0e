package storage

import "errors"

var (
	// ErrNotFound indicates no content exists for the given key.
	ErrNotFound = errors.New("storage: content not found")

	// ErrInvalidKeyHash indicates the key length matches no supported digest size.
	ErrInvalidKeyHash = errors.New("storage: key hash has unsupported length")

	// ErrIOFailure indicates a file read/write error.
	ErrIOFailure = errors.New("storage: I/O failure")

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = errors.New("storage: content is empty")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("storage: invalid base directory")

	// ErrManifestMismatch indicates a stored manifest does not hash to its key.
	ErrManifestMismatch = errors.New("storage: manifest does not match key")

	// ErrInvalidManifest indicates a stored manifest could not be decoded.
	ErrInvalidManifest = errors.New("storage: invalid manifest")
)
