package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalvoice/mlinspect/internal/coreml/coremltest"
)

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	spec := coremltest.DeepFilterNet()

	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o600))
		return p
	}
	plainDir := filepath.Join(dir, "plain")
	require.NoError(t, os.Mkdir(plainDir, 0o755))

	tests := []struct {
		name string
		path string
		want Format
	}{
		{"package", coremltest.WritePackage(t, dir, "dfn", spec, 16), FormatCoreMLPackage},
		{"compiled", coremltest.WriteCompiled(t, dir, "dfn", spec), FormatCoreMLCompiled},
		{"spec", coremltest.WriteSpec(t, dir, "dfn", spec), FormatCoreMLSpec},
		{"onnx", write("m.onnx", nil), FormatONNX},
		{"gguf extension", write("m.GGUF", nil), FormatGGUF},
		{"gguf magic", write("ggml-base.bin", []byte("GGUF\x03\x00\x00\x00")), FormatGGUF},
		{"safetensors", write("m.safetensors", nil), FormatSafeTensors},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing manifest in mlpackage", func(t *testing.T) {
		p := filepath.Join(dir, "empty.mlpackage")
		require.NoError(t, os.Mkdir(p, 0o755))
		got, err := DetectFormat(p)
		require.NoError(t, err)
		assert.Equal(t, FormatCoreMLPackage, got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := DetectFormat(filepath.Join(dir, "nope.mlpackage"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("plain directory", func(t *testing.T) {
		_, err := DetectFormat(plainDir)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := DetectFormat(write("notes.txt", []byte("hello")))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("short unknown file", func(t *testing.T) {
		_, err := DetectFormat(write("x.bin", []byte("GG")))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestFormatStrings(t *testing.T) {
	for _, f := range Formats() {
		assert.NotEqual(t, "unknown", f.String())
		assert.NotEqual(t, "unknown format", f.Description())
	}
	assert.Equal(t, "unknown", FormatUnknown.String())
	assert.True(t, FormatCoreMLCompiled.IsCoreML())
	assert.False(t, FormatONNX.IsCoreML())

	text, err := FormatSafeTensors.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "safetensors", string(text))
}

func TestFormatError(t *testing.T) {
	inner := os.ErrClosed
	err := &FormatError{Format: FormatGGUF, Path: "m.gguf", Err: inner}
	assert.Equal(t, "gguf m.gguf: "+inner.Error(), err.Error())
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, inner)
}
