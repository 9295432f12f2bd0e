package contenthash

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// --- ReadManifest / HashReader tests ---

func TestHashReader(t *testing.T) {
	data := pattern(2*BlockSize+3, 13)
	got, err := HashReader(context.Background(), SHA256, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Hash(SHA256, Bytes(data)), got)
}

func TestHashReader_OneByteReads(t *testing.T) {
	got, err := HashReader(context.Background(), SHA1, iotest.OneByteReader(bytes.NewReader([]byte("foobar"))))
	require.NoError(t, err)
	assert.Equal(t, "9b500343bc52e2911172eb52ae5cf4847604c6e5", got)
}

func TestHashReader_Empty(t *testing.T) {
	got, err := HashReader(context.Background(), SHA256, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456", got)
}

func TestReadManifest_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReadManifest(context.Background(), SHA256, iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)
}

func TestReadManifest_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadManifest(ctx, SHA256, bytes.NewReader([]byte("foobar")))
	assert.ErrorIs(t, err, context.Canceled)
}

// --- HashFile tests ---

func TestHashFile_MatchesSequential(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		workers int
	}{
		{"empty", 0, 1},
		{"small", 100, 4},
		{"exact block", BlockSize, 2},
		{"several blocks", 3*BlockSize + 17, 2},
		{"default workers", BlockSize + 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pattern(tt.size, 14)
			path := writeTempFile(t, data)

			m, err := HashFile(context.Background(), SHA256, path, tt.workers)
			require.NoError(t, err)
			assert.Equal(t, Init(SHA256).Update(Bytes(data)).Manifest(), m)
			assert.Equal(t, Hash(SHA256, Bytes(data)), m.ContentHash())
		})
	}
}

func TestHashFile_NotFound(t *testing.T) {
	_, err := HashFile(context.Background(), SHA256, filepath.Join(t.TempDir(), "missing"), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHashFile_Directory(t *testing.T) {
	_, err := HashFile(context.Background(), SHA256, t.TempDir(), 1)
	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestHashFile_Canceled(t *testing.T) {
	path := writeTempFile(t, pattern(2*BlockSize, 15))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := HashFile(ctx, SHA256, path, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
