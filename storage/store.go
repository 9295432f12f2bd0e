package storage

import "github.com/bitfsorg/contenthash-go/contenthash"

// Store provides content-addressed storage keyed by raw content-hash bytes.
// A key must be as long as the digest of one of the supported algorithms.
type Store interface {
	// Put stores data under key, replacing any previous value.
	Put(key []byte, data []byte) error

	// Get retrieves the data stored under key.
	Get(key []byte) ([]byte, error)

	// Has checks if data exists for key.
	Has(key []byte) (bool, error)

	// Delete removes the data stored under key.
	Delete(key []byte) error

	// Size returns the size in bytes of the data stored under key.
	Size(key []byte) (int64, error)

	// List returns all stored keys.
	List() ([][]byte, error)
}

// validKeySizes holds every digest size produced by a supported algorithm.
var validKeySizes = func() map[int]bool {
	sizes := make(map[int]bool)
	for _, alg := range contenthash.Algorithms() {
		sizes[alg.Size()] = true
	}
	return sizes
}()
