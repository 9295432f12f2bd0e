package contenthash

import (
	"encoding/hex"
	"hash"
)

// Hasher computes a content hash incrementally as a hash.Hash.
//
// Bytes are streamed straight into the current block digest, so a Hasher
// never buffers block data. Sum may be called any number of times and does
// not change the state. A Hasher must not be used from multiple goroutines.
type Hasher struct {
	alg     Algorithm
	block   hash.Hash
	n       int    // bytes written into block
	digests []byte // concatenated digests of completed blocks
	blocks  int
	size    int64
}

// Compile-time interface check.
var _ hash.Hash = (*Hasher)(nil)

// New returns a Hasher for alg.
func New(alg Algorithm) *Hasher {
	h := &Hasher{alg: alg}
	h.Reset()
	return h
}

// Algorithm returns the digest algorithm of h.
func (h *Hasher) Algorithm() Algorithm { return h.alg }

// Write adds p to the running hash. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	h.size += int64(n)
	for len(p) > 0 {
		k := min(BlockSize-h.n, len(p))
		h.block.Write(p[:k])
		h.n += k
		p = p[k:]
		if h.n == BlockSize {
			h.digests = h.block.Sum(h.digests)
			h.blocks++
			h.block.Reset()
			h.n = 0
		}
	}
	return n, nil
}

// Sum appends the content hash to b.
func (h *Hasher) Sum(b []byte) []byte {
	total := h.alg.New()
	total.Write(h.digests)
	if tail := h.tail(); tail != nil {
		total.Write(tail)
	}
	return total.Sum(b)
}

// ContentHash returns the lowercase hex content hash.
func (h *Hasher) ContentHash() string {
	return hex.EncodeToString(h.Sum(nil))
}

// Manifest returns the per-block digests written so far.
func (h *Hasher) Manifest() *Manifest {
	size := h.alg.Size()
	m := &Manifest{
		Algorithm: h.alg,
		Size:      h.size,
		Blocks:    make([][]byte, 0, h.blocks+1),
	}
	for i := 0; i < h.blocks; i++ {
		d := make([]byte, size)
		copy(d, h.digests[i*size:])
		m.Blocks = append(m.Blocks, d)
	}
	if tail := h.tail(); tail != nil {
		m.Blocks = append(m.Blocks, tail)
	}
	return m
}

func (h *Hasher) tail() []byte {
	if h.n == 0 && h.blocks > 0 {
		return nil
	}
	return h.block.Sum(nil)
}

// Reset discards all written data.
func (h *Hasher) Reset() {
	h.block = h.alg.New()
	h.n = 0
	h.digests = nil
	h.blocks = 0
	h.size = 0
}

// Size returns the number of bytes Sum appends.
func (h *Hasher) Size() int { return h.alg.Size() }

// BlockSize returns BlockSize. Writes that are a multiple of it avoid
// splitting a write across two block digests.
func (h *Hasher) BlockSize() int { return BlockSize }

// Sum returns the raw content hash of p.
func Sum(alg Algorithm, p []byte) []byte {
	h := New(alg)
	h.Write(p)
	return h.Sum(nil)
}
