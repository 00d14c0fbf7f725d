package inspect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.bin")
	require.NoError(t, os.WriteFile(path, []byte("test data"), 0o600))

	sum, err := Checksum(context.Background(), path)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("test data"))
	assert.Equal(t, hex.EncodeToString(want[:]), sum)
}

func TestChecksumTree(t *testing.T) {
	build := func(content string) string {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "Data", "weights"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Manifest.json"), []byte("{}"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Data", "weights", "weight.bin"), []byte(content), 0o600))
		return dir
	}

	a, err := Checksum(context.Background(), build("abc"))
	require.NoError(t, err)
	b, err := Checksum(context.Background(), build("abc"))
	require.NoError(t, err)
	c, err := Checksum(context.Background(), build("abd"))
	require.NoError(t, err)

	assert.Equal(t, a, b, "same tree in a different location hashes the same")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestChecksumCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Checksum(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecksumMissing(t *testing.T) {
	_, err := Checksum(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
