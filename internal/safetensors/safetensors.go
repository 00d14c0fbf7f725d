// Package safetensors reads the header of SafeTensors files.
//
// SafeTensors format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
//
// The JSON header maps tensor names to dtype, shape and data offsets, with an
// optional "__metadata__" object of string pairs. Tensor data is never read.
package safetensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tidwall/gjson"
)

// MaxHeaderSize bounds the JSON header.
const MaxHeaderSize = 100 * 1024 * 1024

const metadataKey = "__metadata__"

// Errors returned for malformed headers.
var (
	ErrHeaderTooLarge = errors.New("safetensors: header exceeds maximum size")
	ErrInvalidHeader  = errors.New("safetensors: invalid header")
)

// DType is a SafeTensors element type.
type DType string

// Known SafeTensors dtypes.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	F64  DType = "F64"
	I8   DType = "I8"
	I16  DType = "I16"
	I32  DType = "I32"
	I64  DType = "I64"
	U8   DType = "U8"
	U16  DType = "U16"
	U32  DType = "U32"
	U64  DType = "U64"
	Bool DType = "BOOL"
)

// Size returns the element size in bytes, or 0 for unknown dtypes.
func (d DType) Size() int64 {
	switch d {
	case Bool, U8, I8:
		return 1
	case F16, BF16, I16, U16:
		return 2
	case F32, I32, U32:
		return 4
	case F64, I64, U64:
		return 8
	default:
		return 0
	}
}

// TensorInfo describes a tensor in the header.
type TensorInfo struct {
	Name        string
	DType       DType
	Shape       []int64
	DataOffsets [2]int64 // [start, end) relative to the data section
}

// NumElements returns the product of the shape (1 for scalars).
func (t *TensorInfo) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Size returns the byte length from the data offsets.
func (t *TensorInfo) Size() int64 {
	return t.DataOffsets[1] - t.DataOffsets[0]
}

// Header is a decoded SafeTensors header.
type Header struct {
	Metadata   map[string]string
	Tensors    []TensorInfo // sorted by name
	HeaderSize uint64
}

// DataOffset returns the file offset of the tensor data section.
func (h *Header) DataOffset() int64 {
	return int64(8 + h.HeaderSize) //nolint:gosec // G115: HeaderSize <= MaxHeaderSize.
}

// ParameterCount returns the total number of elements across tensors.
func (h *Header) ParameterCount() int64 {
	var n int64
	for i := range h.Tensors {
		n += h.Tensors[i].NumElements()
	}
	return n
}

// DTypeHistogram returns the number of tensors per dtype.
func (h *Header) DTypeHistogram() map[DType]int {
	m := make(map[DType]int)
	for i := range h.Tensors {
		m[h.Tensors[i].DType]++
	}
	return m
}

// ReadHeader reads the length prefix and JSON header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	h, err := ParseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	h.HeaderSize = headerSize
	return h, nil
}

// ParseHeader decodes the JSON header.
func ParseHeader(data []byte) (*Header, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidHeader)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidHeader)
	}

	h := &Header{}
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == metadataKey {
			h.Metadata, err = parseMetadata(value)
			return err == nil
		}
		var info TensorInfo
		info, err = parseTensor(name, value)
		h.Tensors = append(h.Tensors, info)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(h.Tensors, func(i, j int) bool { return h.Tensors[i].Name < h.Tensors[j].Name })
	return h, nil
}

func parseMetadata(v gjson.Result) (map[string]string, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidHeader, metadataKey)
	}
	meta := make(map[string]string)
	var err error
	v.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: metadata %q is not a string", ErrInvalidHeader, key.String())
			return false
		}
		meta[key.String()] = value.String()
		return true
	})
	return meta, err
}

func parseTensor(name string, v gjson.Result) (TensorInfo, error) {
	info := TensorInfo{Name: name}
	if !v.IsObject() {
		return info, fmt.Errorf("%w: tensor %q is not an object", ErrInvalidHeader, name)
	}

	dtype := v.Get("dtype")
	if dtype.Type != gjson.String {
		return info, fmt.Errorf("%w: tensor %q has no dtype", ErrInvalidHeader, name)
	}
	info.DType = DType(dtype.String())

	shape := v.Get("shape")
	if !shape.IsArray() {
		return info, fmt.Errorf("%w: tensor %q has no shape", ErrInvalidHeader, name)
	}
	info.Shape = []int64{}
	for _, d := range shape.Array() {
		if d.Type != gjson.Number || d.Int() < 0 {
			return info, fmt.Errorf("%w: tensor %q has invalid dimension %s", ErrInvalidHeader, name, d.Raw)
		}
		info.Shape = append(info.Shape, d.Int())
	}

	offsets := v.Get("data_offsets").Array()
	if len(offsets) != 2 {
		return info, fmt.Errorf("%w: tensor %q needs two data_offsets", ErrInvalidHeader, name)
	}
	info.DataOffsets = [2]int64{offsets[0].Int(), offsets[1].Int()}
	return info, nil
}

// ParseFile reads the header of a SafeTensors file and validates tensor
// offsets against the file size.
func ParseFile(path string) (*Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model inspection
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close() // Best effort close on read-only file.
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	h, err := ReadHeader(f)
	if err != nil {
		return nil, err
	}
	if err := ValidateOffsets(h.Tensors, stat.Size()-h.DataOffset()); err != nil {
		return nil, err
	}
	return h, nil
}
