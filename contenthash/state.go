// Package contenthash implements the Dropbox content hash: the input is split
// into 4 MiB blocks, each block is digested, and the concatenated block
// digests are digested again to form the content hash.
package contenthash

import "encoding/hex"

// BlockSize is the fixed block length (4 MiB). It is part of the hash
// definition and does not vary with the algorithm.
const BlockSize = 4 * 1024 * 1024

// State is the incremental state of a content hash computation.
//
// State is an immutable value. Update returns a new State and never
// modifies the receiver, so every intermediate value can still be
// finalized and reflects only the data consumed up to that point.
// The zero value is a fresh SHA-256 state.
type State struct {
	alg     Algorithm
	pending []byte // len(pending) < BlockSize
	digests []byte // concatenated digests of completed blocks
	blocks  int
	size    int64
}

// Init returns a fresh state for alg.
func Init(alg Algorithm) State {
	alg.info()
	return State{alg: alg}
}

// Algorithm returns the digest algorithm of s.
func (s State) Algorithm() Algorithm { return s.alg }

// Size returns the total number of bytes consumed.
func (s State) Size() int64 { return s.size }

// Blocks returns the number of completed full blocks.
func (s State) Blocks() int { return s.blocks }

// Pending returns the number of buffered bytes past the last full block.
func (s State) Pending() int { return len(s.pending) }

// Update consumes data and returns the resulting state.
func (s State) Update(data ...Chunk) State {
	next := State{
		alg:     s.alg,
		pending: s.pending,
		// Capping capacity forces the first append to copy, so s keeps
		// its own digest history.
		digests: s.digests[:len(s.digests):len(s.digests)],
		blocks:  s.blocks,
		size:    s.size,
	}
	owned := false

	Seq(data).each(func(p []byte) {
		next.size += int64(len(p))
		for len(p) > 0 {
			if len(next.pending) == 0 && len(p) >= BlockSize {
				next.digests = append(next.digests, s.alg.Digest(p[:BlockSize])...)
				next.blocks++
				p = p[BlockSize:]
				continue
			}
			if !owned {
				buf := make([]byte, len(next.pending), min(BlockSize, len(next.pending)+len(p)))
				copy(buf, next.pending)
				next.pending = buf
				owned = true
			}
			n := min(BlockSize-len(next.pending), len(p))
			next.pending = append(next.pending, p[:n]...)
			p = p[n:]
			if len(next.pending) == BlockSize {
				next.digests = append(next.digests, s.alg.Digest(next.pending)...)
				next.blocks++
				next.pending = next.pending[:0]
			}
		}
	})

	if owned && len(next.pending) == 0 {
		next.pending = nil
	}
	return next
}

// Sum returns the raw content hash of the data consumed so far.
func (s State) Sum() []byte {
	h := s.alg.New()
	h.Write(s.digests)
	if tail := s.tail(); tail != nil {
		h.Write(tail)
	}
	return h.Sum(nil)
}

// Finalize returns the lowercase hex content hash of the data consumed so far.
// s is not modified.
func (s State) Finalize() string {
	return hex.EncodeToString(s.Sum())
}

// Manifest returns the per-block digests of the data consumed so far.
func (s State) Manifest() *Manifest {
	m := &Manifest{
		Algorithm: s.alg,
		Size:      s.size,
		Blocks:    make([][]byte, 0, s.blocks+1),
	}
	size := s.alg.Size()
	for i := 0; i < s.blocks; i++ {
		d := make([]byte, size)
		copy(d, s.digests[i*size:])
		m.Blocks = append(m.Blocks, d)
	}
	if tail := s.tail(); tail != nil {
		m.Blocks = append(m.Blocks, tail)
	}
	return m
}

// tail returns the digest of the trailing partial block. When no byte was
// ever consumed this is the digest of the empty block. It returns nil when
// the input ended exactly on a block boundary.
func (s State) tail() []byte {
	if len(s.pending) == 0 && s.blocks > 0 {
		return nil
	}
	return s.alg.Digest(s.pending)
}

// Hash returns the hex content hash of data in one call.
func Hash(alg Algorithm, data ...Chunk) string {
	return Init(alg).Update(data...).Finalize()
}
