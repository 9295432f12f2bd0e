package contenthash

import "errors"

var (
	// ErrUnknownAlgorithm indicates an algorithm name or value is not supported.
	ErrUnknownAlgorithm = errors.New("contenthash: unknown algorithm")

	// ErrAlgorithmMismatch indicates two manifests were built with different algorithms.
	ErrAlgorithmMismatch = errors.New("contenthash: algorithm mismatch")

	// ErrHashMismatch indicates a computed content hash differs from the expected one.
	ErrHashMismatch = errors.New("contenthash: content hash mismatch")

	// ErrNilManifest indicates a nil manifest was provided.
	ErrNilManifest = errors.New("contenthash: manifest is nil")

	// ErrNotRegularFile indicates HashFile was given a directory or special file.
	ErrNotRegularFile = errors.New("contenthash: not a regular file")
)
