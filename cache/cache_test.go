package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/contenthash-go/contenthash"
)

// --- Helper functions ---

func openTestCache(t *testing.T) *DigestCache {
	t.Helper()
	c, err := OpenDigestCache(filepath.Join(t.TempDir(), "db", "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeFile(t *testing.T, dir, name string, data []byte) (string, os.FileInfo) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return path, info
}

// --- Lookup / Store tests ---

func TestLookup_Miss(t *testing.T) {
	c := openTestCache(t)
	path, info := writeFile(t, t.TempDir(), "a", []byte("foobar"))

	m, hit, err := c.Lookup(path, info, contenthash.SHA256)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, m)
}

func TestStoreLookup_RoundTrip(t *testing.T) {
	c := openTestCache(t)
	path, info := writeFile(t, t.TempDir(), "a", []byte("foobar"))
	m := contenthash.Init(contenthash.SHA1).Update(contenthash.Bytes("foobar")).Manifest()

	require.NoError(t, c.Store(path, info, m))

	got, hit, err := c.Lookup(path, info, contenthash.SHA1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, m, got)

	// Entries are per algorithm.
	_, hit, err = c.Lookup(path, info, contenthash.SHA256)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLookup_StaleAfterModification(t *testing.T) {
	c := openTestCache(t)
	dir := t.TempDir()
	path, info := writeFile(t, dir, "a", []byte("foobar"))
	m := contenthash.Init(contenthash.SHA256).Update(contenthash.Bytes("foobar")).Manifest()
	require.NoError(t, c.Store(path, info, m))

	// Same size, different mtime.
	require.NoError(t, os.WriteFile(path, []byte("foobaz"), 0600))
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	newInfo, err := os.Stat(path)
	require.NoError(t, err)

	_, hit, err := c.Lookup(path, newInfo, contenthash.SHA256)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLookup_RelativeAndAbsolutePathsShareEntry(t *testing.T) {
	c := openTestCache(t)
	dir := t.TempDir()
	path, info := writeFile(t, dir, "a", []byte("foobar"))
	m := contenthash.Init(contenthash.SHA256).Update(contenthash.Bytes("foobar")).Manifest()
	require.NoError(t, c.Store(path, info, m))

	t.Chdir(dir)
	_, hit, err := c.Lookup("a", info, contenthash.SHA256)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestInvalidate(t *testing.T) {
	c := openTestCache(t)
	path, info := writeFile(t, t.TempDir(), "a", []byte("foobar"))

	for _, alg := range []contenthash.Algorithm{contenthash.SHA256, contenthash.MD5} {
		m := contenthash.Init(alg).Update(contenthash.Bytes("foobar")).Manifest()
		require.NoError(t, c.Store(path, info, m))
	}
	require.NoError(t, c.Invalidate(path))

	for _, alg := range []contenthash.Algorithm{contenthash.SHA256, contenthash.MD5} {
		_, hit, err := c.Lookup(path, info, alg)
		require.NoError(t, err)
		assert.False(t, hit, alg.String())
	}
}

func TestNilArguments(t *testing.T) {
	c := openTestCache(t)
	_, _, err := c.Lookup("x", nil, contenthash.SHA256)
	assert.ErrorIs(t, err, ErrNilFileInfo)

	path, info := writeFile(t, t.TempDir(), "a", []byte("x"))
	assert.ErrorIs(t, c.Store(path, nil, &contenthash.Manifest{}), ErrNilFileInfo)
	assert.ErrorIs(t, c.Store(path, info, nil), contenthash.ErrNilManifest)
}

func TestClosed(t *testing.T) {
	c, err := OpenDigestCache(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	path, info := writeFile(t, t.TempDir(), "a", []byte("x"))
	_, _, err = c.Lookup(path, info, contenthash.SHA256)
	assert.ErrorIs(t, err, ErrClosed)
}

// --- HashFile tests ---

func TestHashFile_MissThenHit(t *testing.T) {
	var logs bytes.Buffer
	c, err := OpenDigestCache(filepath.Join(t.TempDir(), "cache.db"), zerolog.New(&logs).Level(zerolog.DebugLevel))
	require.NoError(t, err)
	defer c.Close()

	data := bytes.Repeat([]byte{0x01}, contenthash.BlockSize+5)
	path, _ := writeFile(t, t.TempDir(), "big", data)
	want := contenthash.Hash(contenthash.SHA256, contenthash.Bytes(data))

	m, hit, err := c.HashFile(context.Background(), path, contenthash.SHA256, 2)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, want, m.ContentHash())

	m, hit, err = c.HashFile(context.Background(), path, contenthash.SHA256, 2)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, m.ContentHash())

	assert.Contains(t, logs.String(), "cache miss")
	assert.Contains(t, logs.String(), "cache hit")
}

func TestHashFile_Missing(t *testing.T) {
	c := openTestCache(t)
	_, _, err := c.HashFile(context.Background(), filepath.Join(t.TempDir(), "nope"), contenthash.SHA256, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
