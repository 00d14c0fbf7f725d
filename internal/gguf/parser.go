package gguf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Sentinel errors for malformed files.
var (
	ErrInvalidMagic       = errors.New("gguf: invalid magic")
	ErrUnsupportedVersion = errors.New("gguf: unsupported version")
)

const (
	maxArrayLen  = 100_000_000
	maxStringLen = 1 << 20
	maxDims      = 8
)

// Parse reads the header, metadata and tensor directory from r.
func Parse(r io.ReadSeeker) (*File, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("get size: %w", err)
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}

	p := &parser{
		r:     r,
		size:  size,
		order: binary.LittleEndian, // Default to little-endian
	}
	return p.parse()
}

// ParseFile parses a GGUF file from disk.
//
//nolint:gosec // G304: Path is provided by user, reading the model is the point.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() {
		_ = f.Close() // Ignore close error on read-only file.
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	gguf, err := Parse(f)
	if err != nil {
		return nil, err
	}

	gguf.FilePath = path
	gguf.FileSize = stat.Size()

	return gguf, nil
}

// HasMagic reports whether b starts with the GGUF magic in either byte order.
func HasMagic(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	m := binary.LittleEndian.Uint32(b)
	return m == MagicGGUFLE || m == MagicGGUFBE
}

type parser struct {
	r     io.ReadSeeker
	size  int64 // stream length; seeks never report EOF themselves
	order binary.ByteOrder
	v1    bool // v1 encodes lengths and counts as uint32
}

func (p *parser) read(v any) error {
	return binary.Read(p.r, p.order, v)
}

// skip moves n bytes forward, failing when that passes the end of the stream.
func (p *parser) skip(n int64) error {
	pos, err := p.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if n > p.size-pos {
		return fmt.Errorf("%w: need %d bytes at offset %d, stream has %d", io.ErrUnexpectedEOF, n, pos, p.size)
	}
	_, err = p.r.Seek(n, io.SeekCurrent)
	return err
}

// readLen reads a string or array length.
func (p *parser) readLen() (uint64, error) {
	if p.v1 {
		var n uint32
		err := p.read(&n)
		return uint64(n), err
	}
	var n uint64
	err := p.read(&n)
	return n, err
}

func (p *parser) parse() (*File, error) {
	file := &File{Alignment: DefaultAlignment}

	if err := p.parseHeader(&file.Header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	// Each kv takes at least 12 bytes; the count only sizes the slice when plausible.
	if file.Header.MetadataKVCount <= 1<<16 {
		file.Metadata = make([]MetadataKV, 0, file.Header.MetadataKVCount)
	}
	for i := uint64(0); i < file.Header.MetadataKVCount; i++ {
		kv, err := p.parseMetadataKV()
		if err != nil {
			return nil, fmt.Errorf("parse metadata kv %d: %w", i, err)
		}
		file.Metadata = append(file.Metadata, kv)

		if kv.Key == "general.alignment" {
			if align, ok := kv.Value.(uint32); ok && align > 0 {
				file.Alignment = int(align)
			}
		}
	}

	for i := uint64(0); i < file.Header.TensorCount; i++ {
		var ti TensorInfo
		if err := p.parseTensorInfo(&ti); err != nil {
			return nil, fmt.Errorf("parse tensor info %d: %w", i, err)
		}
		file.TensorInfo = append(file.TensorInfo, ti)
	}

	pos, err := p.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	file.TensorDataOffset = alignOffset(pos, file.Alignment)

	return file, nil
}

func (p *parser) parseHeader(h *Header) error {
	// Magic is four ASCII bytes; reading it little-endian tells the byte order.
	if err := binary.Read(p.r, binary.LittleEndian, &h.Magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}

	switch h.Magic {
	case MagicGGUFLE:
		p.order = binary.LittleEndian
	case MagicGGUFBE:
		p.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: 0x%08X (expected GGUF)", ErrInvalidMagic, h.Magic)
	}

	if err := p.read(&h.Version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if h.Version < Version1 || h.Version > Version3 {
		return fmt.Errorf("%w: %d (supported: 1-3)", ErrUnsupportedVersion, h.Version)
	}

	p.v1 = h.Version == Version1

	var err error
	if h.TensorCount, err = p.readLen(); err != nil {
		return fmt.Errorf("read tensor count: %w", err)
	}
	if h.MetadataKVCount, err = p.readLen(); err != nil {
		return fmt.Errorf("read metadata kv count: %w", err)
	}
	return nil
}

func (p *parser) parseMetadataKV() (MetadataKV, error) {
	var kv MetadataKV

	key, err := p.readString()
	if err != nil {
		return kv, fmt.Errorf("read key: %w", err)
	}
	kv.Key = key

	var valueType uint32
	if err := p.read(&valueType); err != nil {
		return kv, fmt.Errorf("read value type: %w", err)
	}
	kv.ValueType = ValueType(valueType)

	value, err := p.parseValue(kv.ValueType)
	if err != nil {
		return kv, fmt.Errorf("read value of %q: %w", key, err)
	}
	kv.Value = value

	return kv, nil
}

// parseValue reads a metadata value of the given type.
func (p *parser) parseValue(t ValueType) (any, error) {
	switch t {
	case ValueTypeBool:
		var v uint8
		err := p.read(&v)
		return v != 0, err
	case ValueTypeString:
		return p.readString()
	case ValueTypeArray:
		return p.parseArray()
	case ValueTypeUint8:
		var v uint8
		err := p.read(&v)
		return v, err
	case ValueTypeInt8:
		var v int8
		err := p.read(&v)
		return v, err
	case ValueTypeUint16:
		var v uint16
		err := p.read(&v)
		return v, err
	case ValueTypeInt16:
		var v int16
		err := p.read(&v)
		return v, err
	case ValueTypeUint32:
		var v uint32
		err := p.read(&v)
		return v, err
	case ValueTypeInt32:
		var v int32
		err := p.read(&v)
		return v, err
	case ValueTypeFloat32:
		var v float32
		err := p.read(&v)
		return v, err
	case ValueTypeUint64:
		var v uint64
		err := p.read(&v)
		return v, err
	case ValueTypeInt64:
		var v int64
		err := p.read(&v)
		return v, err
	case ValueTypeFloat64:
		var v float64
		err := p.read(&v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown value type: %d", t)
	}
}

// parseArray keeps the first ArrayHeadLen elements and skips the rest.
func (p *parser) parseArray() (Array, error) {
	var arr Array

	var elemType uint32
	if err := p.read(&elemType); err != nil {
		return arr, fmt.Errorf("read array element type: %w", err)
	}
	arr.ElemType = ValueType(elemType)
	if _, ok := valueTypeNames[arr.ElemType]; !ok {
		return arr, fmt.Errorf("unsupported array element type: %s", arr.ElemType)
	}

	var err error
	if arr.Len, err = p.readLen(); err != nil {
		return arr, fmt.Errorf("read array length: %w", err)
	}
	if arr.Len > maxArrayLen {
		return arr, fmt.Errorf("array too large: %d elements", arr.Len)
	}

	head := min(arr.Len, ArrayHeadLen)
	arr.Head = make([]any, 0, head)
	for i := uint64(0); i < head; i++ {
		v, err := p.parseValue(arr.ElemType)
		if err != nil {
			return arr, fmt.Errorf("read array element %d: %w", i, err)
		}
		arr.Head = append(arr.Head, v)
	}

	rest := arr.Len - head
	if size := arr.ElemType.fixedSize(); size > 0 {
		//nolint:gosec // G115: rest <= maxArrayLen, size <= 8.
		if err := p.skip(int64(rest) * size); err != nil {
			return arr, fmt.Errorf("skip array: %w", err)
		}
		return arr, nil
	}
	for i := uint64(0); i < rest; i++ {
		if err := p.skipValue(arr.ElemType); err != nil {
			return arr, fmt.Errorf("skip array element %d: %w", head+i, err)
		}
	}
	return arr, nil
}

// skipValue skips a string or nested array.
func (p *parser) skipValue(t ValueType) error {
	if t == ValueTypeString {
		length, err := p.readLen()
		if err != nil {
			return err
		}
		if length > maxStringLen {
			return fmt.Errorf("string too long: %d bytes", length)
		}
		return p.skip(int64(length)) //nolint:gosec // G115: bounded by maxStringLen.
	}
	_, err := p.parseValue(t)
	return err
}

func (p *parser) parseTensorInfo(t *TensorInfo) error {
	name, err := p.readString()
	if err != nil {
		return fmt.Errorf("read tensor name: %w", err)
	}
	t.Name = name

	if err := p.read(&t.NDims); err != nil {
		return fmt.Errorf("read ndims: %w", err)
	}
	if t.NDims > maxDims {
		return fmt.Errorf("too many dimensions: %d", t.NDims)
	}

	t.Dimensions = make([]uint64, t.NDims)
	for i := uint32(0); i < t.NDims; i++ {
		if err := p.read(&t.Dimensions[i]); err != nil {
			return fmt.Errorf("read dimension %d: %w", i, err)
		}
	}

	var ggmlType uint32
	if err := p.read(&ggmlType); err != nil {
		return fmt.Errorf("read type: %w", err)
	}
	t.Type = GGMLType(ggmlType)

	if err := p.read(&t.Offset); err != nil {
		return fmt.Errorf("read offset: %w", err)
	}
	return nil
}

// readString reads a GGUF string (length-prefixed, NOT null-terminated).
func (p *parser) readString() (string, error) {
	length, err := p.readLen()
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if length > maxStringLen {
		return "", fmt.Errorf("string too long: %d bytes", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(p.r, data); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}
	return string(data), nil
}
