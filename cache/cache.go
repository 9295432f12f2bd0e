// Package cache remembers the block manifests of local files in a bbolt
// database so unchanged files are not re-read.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/contenthash-go/contenthash"
)

var bucketManifests = []byte("manifests")

var (
	// ErrClosed indicates the cache was used after Close.
	ErrClosed = errors.New("cache: database is closed")

	// ErrNilFileInfo indicates a nil fs.FileInfo was provided.
	ErrNilFileInfo = errors.New("cache: file info is nil")
)

// entry is the gob-encoded value stored per file.
type entry struct {
	Size    int64
	ModTime int64 // UnixNano
	Blocks  [][]byte
}

// DigestCache stores manifests keyed by algorithm and absolute file path.
// An entry is only returned while the file's size and modification time
// are unchanged.
type DigestCache struct {
	db  *bbolt.DB
	log zerolog.Logger
}

// OpenDigestCache opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenDigestCache(dbPath string, log zerolog.Logger) (*DigestCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketManifests)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create bucket %q: %w", bucketManifests, err)
	}

	return &DigestCache{db: db, log: log}, nil
}

// Close closes the underlying database.
func (c *DigestCache) Close() error { return c.db.Close() }

// cacheKey encodes algorithm and absolute path as "alg\x00path".
func cacheKey(alg contenthash.Algorithm, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve path: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(alg.String())
	buf.WriteByte(0)
	buf.WriteString(abs)
	return buf.Bytes(), nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Lookup returns the cached manifest for path if info still matches the
// cached size and modification time.
func (c *DigestCache) Lookup(path string, info fs.FileInfo, alg contenthash.Algorithm) (*contenthash.Manifest, bool, error) {
	if info == nil {
		return nil, false, ErrNilFileInfo
	}
	key, err := cacheKey(alg, path)
	if err != nil {
		return nil, false, err
	}

	var e entry
	found := false
	err = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketManifests).Get(key)
		if data == nil {
			return nil
		}
		if err := decodeGob(data, &e); err != nil {
			return fmt.Errorf("cache: decode entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, wrapClosed(err)
	}
	if !found || e.Size != info.Size() || e.ModTime != info.ModTime().UnixNano() {
		return nil, false, nil
	}

	return &contenthash.Manifest{Algorithm: alg, Size: e.Size, Blocks: e.Blocks}, true, nil
}

// Store records m for path, tagged with info's size and modification time.
func (c *DigestCache) Store(path string, info fs.FileInfo, m *contenthash.Manifest) error {
	if info == nil {
		return ErrNilFileInfo
	}
	if m == nil {
		return contenthash.ErrNilManifest
	}
	key, err := cacheKey(m.Algorithm, path)
	if err != nil {
		return err
	}
	data, err := encodeGob(entry{Size: m.Size, ModTime: info.ModTime().UnixNano(), Blocks: m.Blocks})
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketManifests).Put(key, data)
	})
	return wrapClosed(err)
}

// Invalidate removes every cached entry for path.
func (c *DigestCache) Invalidate(path string) error {
	keys := make([][]byte, 0, len(contenthash.Algorithms()))
	for _, alg := range contenthash.Algorithms() {
		key, err := cacheKey(alg, path)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketManifests)
		for _, key := range keys {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapClosed(err)
}

// HashFile returns the manifest of path, from the cache when the file is
// unchanged and otherwise by hashing it with contenthash.HashFile. The
// boolean result reports a cache hit.
func (c *DigestCache) HashFile(ctx context.Context, path string, alg contenthash.Algorithm, workers int) (*contenthash.Manifest, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: stat: %w", err)
	}

	m, hit, err := c.Lookup(path, info, alg)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cache lookup failed")
	} else if hit {
		c.log.Debug().Str("path", path).Str("algorithm", alg.String()).Msg("cache hit")
		return m, true, nil
	}

	m, err = contenthash.HashFile(ctx, alg, path, workers)
	if err != nil {
		return nil, false, err
	}
	c.log.Debug().Str("path", path).Str("algorithm", alg.String()).Int("blocks", len(m.Blocks)).Msg("cache miss")

	if err := c.Store(path, info, m); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cache store failed")
	}
	return m, false, nil
}

func wrapClosed(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
