package contenthash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// readBufferSize bounds each read from a stream.
const readBufferSize = 1 << 20

// ReadManifest streams r through a Hasher and returns its manifest.
// ctx is checked between reads.
func ReadManifest(ctx context.Context, alg Algorithm, r io.Reader) (*Manifest, error) {
	h := New(alg)
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		h.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return h.Manifest(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("contenthash: read: %w", err)
		}
	}
}

// HashReader returns the hex content hash of everything read from r.
func HashReader(ctx context.Context, alg Algorithm, r io.Reader) (string, error) {
	m, err := ReadManifest(ctx, alg, r)
	if err != nil {
		return "", err
	}
	return m.ContentHash(), nil
}

// HashFile hashes the blocks of a regular file in parallel, using at most
// workers goroutines (runtime.NumCPU() when workers <= 0). The result is
// identical to hashing the file sequentially.
func HashFile(ctx context.Context, alg Algorithm, path string, workers int) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("contenthash: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("contenthash: stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return hashBlocks(ctx, alg, f, info.Size(), workers)
}

// hashBlocks digests every block of an io.ReaderAt of known size.
func hashBlocks(ctx context.Context, alg Algorithm, r io.ReaderAt, size int64, workers int) (*Manifest, error) {
	alg.info()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	m := &Manifest{Algorithm: alg, Size: size}
	nblocks := int(size / BlockSize)
	if size%BlockSize != 0 || size == 0 {
		nblocks++
	}
	m.Blocks = make([][]byte, nblocks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range m.Blocks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			offset, length := m.BlockRange(i)
			h := alg.New()
			if _, err := io.CopyN(h, io.NewSectionReader(r, offset, length), length); err != nil {
				return fmt.Errorf("contenthash: read block %d: %w", i, err)
			}
			m.Blocks[i] = h.Sum(nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
