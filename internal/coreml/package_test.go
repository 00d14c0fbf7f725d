package coreml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalvoice/mlinspect/internal/coreml/coremltest"
)

func TestOpenPackage(t *testing.T) {
	spec := coremltest.DeepFilterNet()
	path := coremltest.WritePackage(t, t.TempDir(), "DeepFilterNet3_Streaming", spec, 1000)

	require.True(t, IsPackage(path))

	pkg, err := OpenPackage(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", pkg.Manifest.FileFormatVersion)
	require.Len(t, pkg.Items, 2)
	assert.Equal(t, "com.apple.CoreML/model.mlmodel", pkg.Items[0].Path)
	assert.True(t, pkg.Items[0].Root)
	assert.Equal(t, int64(len(spec.Marshal())), pkg.Items[0].Size)
	assert.Equal(t, "com.apple.CoreML/weights", pkg.Items[1].Path)
	assert.Equal(t, int64(1000), pkg.Items[1].Size)
	assert.Equal(t, int64(len(spec.Marshal())+1000), pkg.Size())

	require.NotNil(t, pkg.Model)
	assert.Len(t, pkg.Model.Description.Inputs, 3)
}

func TestOpenPackageMissingWeights(t *testing.T) {
	path := coremltest.WritePackage(t, t.TempDir(), "m", coremltest.DeepFilterNet(), 10)
	require.NoError(t, os.RemoveAll(filepath.Join(path, DataDir, "com.apple.CoreML", "weights")))

	pkg, err := OpenPackage(path)
	require.NoError(t, err)
	assert.True(t, pkg.Items[1].Missing)
	assert.Zero(t, pkg.Items[1].Size)
}

func TestOpenPackageErrors(t *testing.T) {
	t.Run("no manifest", func(t *testing.T) {
		dir := t.TempDir()
		assert.False(t, IsPackage(dir))
		_, err := OpenPackage(dir)
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("invalid manifest", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("{not json"), 0o600))
		_, err := OpenPackage(dir)
		assert.ErrorIs(t, err, ErrInvalidManifest)
	})

	t.Run("no root identifier", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(`{"itemInfoEntries":{}}`), 0o600))
		_, err := OpenPackage(dir)
		assert.ErrorIs(t, err, ErrInvalidManifest)
	})

	t.Run("unknown root item", func(t *testing.T) {
		dir := t.TempDir()
		manifest := `{"itemInfoEntries":{},"rootModelIdentifier":"X"}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o600))
		_, err := OpenPackage(dir)
		assert.ErrorIs(t, err, ErrRootModelNotFound)
	})

	t.Run("root spec missing on disk", func(t *testing.T) {
		path := coremltest.WritePackage(t, t.TempDir(), "m", coremltest.DeepFilterNet(), 10)
		require.NoError(t, os.Remove(filepath.Join(path, DataDir, "com.apple.CoreML", "model.mlmodel")))
		_, err := OpenPackage(path)
		assert.ErrorIs(t, err, ErrRootModelNotFound)
	})

	t.Run("corrupt spec", func(t *testing.T) {
		path := coremltest.WritePackage(t, t.TempDir(), "m", coremltest.DeepFilterNet(), 10)
		specPath := filepath.Join(path, DataDir, "com.apple.CoreML", "model.mlmodel")
		require.NoError(t, os.WriteFile(specPath, []byte{0x12, 0xff}, 0o600))
		_, err := OpenPackage(path)
		assert.ErrorIs(t, err, ErrMalformedSpec)
	})
}
