package contenthash

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Manifest lists the per-block digests of one object. The content hash is
// the digest of the concatenated Blocks, so a Manifest lets two copies of a
// large object be compared block by block.
//
// Blocks always holds at least one digest: an object whose size is a
// multiple of BlockSize has exactly Size/BlockSize digests, every other
// object (including the empty one) has one more for its trailing partial
// block.
type Manifest struct {
	Algorithm Algorithm `json:"algorithm"`
	Size      int64     `json:"size"`
	Blocks    [][]byte  `json:"blocks"`
}

// Sum returns the raw content hash described by m.
func (m *Manifest) Sum() []byte {
	h := m.Algorithm.New()
	for _, b := range m.Blocks {
		h.Write(b)
	}
	return h.Sum(nil)
}

// ContentHash returns the lowercase hex content hash described by m.
func (m *Manifest) ContentHash() string {
	return hex.EncodeToString(m.Sum())
}

// Verify checks m against an expected hex content hash.
func (m *Manifest) Verify(expected string) error {
	want, err := hex.DecodeString(expected)
	if err != nil {
		return fmt.Errorf("%w: invalid hex: %w", ErrHashMismatch, err)
	}
	if got := m.Sum(); !bytes.Equal(got, want) {
		return fmt.Errorf("%w: got %x, want %s", ErrHashMismatch, got, expected)
	}
	return nil
}

// DiffBlocks returns the indexes of blocks that differ between a and b,
// in ascending order. Blocks present in only one manifest are reported as
// differing. A nil result means the manifests describe identical content.
func DiffBlocks(a, b *Manifest) ([]int, error) {
	if a == nil || b == nil {
		return nil, ErrNilManifest
	}
	if a.Algorithm != b.Algorithm {
		return nil, fmt.Errorf("%w: %s vs %s", ErrAlgorithmMismatch, a.Algorithm, b.Algorithm)
	}

	var diff []int
	n := max(len(a.Blocks), len(b.Blocks))
	for i := 0; i < n; i++ {
		if i >= len(a.Blocks) || i >= len(b.Blocks) || !bytes.Equal(a.Blocks[i], b.Blocks[i]) {
			diff = append(diff, i)
		}
	}
	return diff, nil
}

// BlockRange returns the byte offset and length covered by block i of m.
func (m *Manifest) BlockRange(i int) (offset, length int64) {
	offset = int64(i) * BlockSize
	length = min(BlockSize, m.Size-offset)
	if length < 0 {
		length = 0
	}
	return offset, length
}
