package inspect

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalvoice/mlinspect/internal/coreml"
	"github.com/metalvoice/mlinspect/internal/gguf"
)

// Format is a model container format.
type Format int

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatCoreMLPackage
	FormatCoreMLCompiled
	FormatCoreMLSpec
	FormatONNX
	FormatGGUF
	FormatSafeTensors
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{
		FormatCoreMLPackage,
		FormatCoreMLCompiled,
		FormatCoreMLSpec,
		FormatONNX,
		FormatGGUF,
		FormatSafeTensors,
	}
}

// String returns the short format name.
func (f Format) String() string {
	switch f {
	case FormatCoreMLPackage:
		return "mlpackage"
	case FormatCoreMLCompiled:
		return "mlmodelc"
	case FormatCoreMLSpec:
		return "mlmodel"
	case FormatONNX:
		return "onnx"
	case FormatGGUF:
		return "gguf"
	case FormatSafeTensors:
		return "safetensors"
	default:
		return "unknown"
	}
}

// Description returns a one-line description of the format.
func (f Format) Description() string {
	switch f {
	case FormatCoreMLPackage:
		return "Core ML model package (directory with Manifest.json)"
	case FormatCoreMLCompiled:
		return "compiled Core ML model (directory with metadata.json)"
	case FormatCoreMLSpec:
		return "Core ML model specification (protobuf)"
	case FormatONNX:
		return "ONNX model (protobuf)"
	case FormatGGUF:
		return "GGUF model (llama.cpp / whisper.cpp)"
	case FormatSafeTensors:
		return "SafeTensors weights"
	default:
		return "unknown format"
	}
}

// IsCoreML reports whether the format is one of the Core ML shapes.
func (f Format) IsCoreML() bool {
	return f == FormatCoreMLPackage || f == FormatCoreMLCompiled || f == FormatCoreMLSpec
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

var extensions = map[string]Format{
	".mlpackage":   FormatCoreMLPackage,
	".mlmodelc":    FormatCoreMLCompiled,
	".mlmodel":     FormatCoreMLSpec,
	".onnx":        FormatONNX,
	".gguf":        FormatGGUF,
	".safetensors": FormatSafeTensors,
}

// DetectFormat identifies the format of the model at path.
func DetectFormat(path string) (Format, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FormatUnknown, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return FormatUnknown, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		switch {
		case coreml.IsPackage(path):
			return FormatCoreMLPackage, nil
		case coreml.IsCompiled(path):
			return FormatCoreMLCompiled, nil
		case strings.EqualFold(filepath.Ext(path), ".mlpackage"):
			// Manifest missing; let the package reader report it.
			return FormatCoreMLPackage, nil
		default:
			return FormatUnknown, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
		}
	}

	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok && f != FormatCoreMLPackage && f != FormatCoreMLCompiled {
		return f, nil
	}

	magic, err := readMagic(path)
	if err != nil {
		return FormatUnknown, err
	}
	if gguf.HasMagic(magic) {
		return FormatGGUF, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

//nolint:gosec // G304: Model path is provided by user.
func readMagic(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, 4)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf[:n], nil
}
