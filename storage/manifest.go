package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bitfsorg/contenthash-go/contenthash"
)

// PutManifest stores m under its content hash and returns that key.
func PutManifest(s Store, m *contenthash.Manifest) ([]byte, error) {
	if m == nil {
		return nil, contenthash.ErrNilManifest
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	key := m.Sum()
	if err := s.Put(key, data); err != nil {
		return nil, err
	}
	return key, nil
}

// GetManifest loads the manifest stored under key and checks that it still
// hashes to key.
func GetManifest(s Store, key []byte) (*contenthash.Manifest, error) {
	data, err := s.Get(key)
	if err != nil {
		return nil, err
	}

	var m contenthash.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if len(m.Blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks", ErrInvalidManifest)
	}
	if !bytes.Equal(m.Sum(), key) {
		return nil, fmt.Errorf("%w: %x", ErrManifestMismatch, key)
	}
	return &m, nil
}
