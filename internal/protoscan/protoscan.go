// Package protoscan walks protobuf messages field by field without generated code.
//
// Model formats such as Core ML specs and ONNX graphs are protobuf messages
// whose .proto files are large; inspecting them only needs a handful of fields.
// A Decoder drives the tag loop, typed accessors consume the current field's
// value, and everything a reader does not ask for is skipped on the wire.
//
//	err := protoscan.New(data).Fields("ModelProto", func(d *protoscan.Decoder, num protowire.Number) (err error) {
//	    switch num {
//	    case 1:
//	        m.IRVersion, err = d.Int64()
//	    default:
//	        return protoscan.ErrSkip
//	    }
//	    return err
//	})
package protoscan

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrSkip is returned by a field callback to discard the field's value.
var ErrSkip = errors.New("protoscan: skip field")

// Decoder walks the fields of one message. Sub-messages get their own Decoder.
type Decoder struct {
	data []byte
	typ  protowire.Type // wire type of the field last returned by Next
}

// New returns a Decoder over an encoded message.
func New(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Type returns the wire type of the current field.
func (d *Decoder) Type() protowire.Type {
	return d.typ
}

// Next returns the next field number, or io.EOF at the end of the message.
func (d *Decoder) Next() (protowire.Number, error) {
	if len(d.data) == 0 {
		return 0, io.EOF
	}
	num, typ, n := protowire.ConsumeTag(d.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.data = d.data[n:]
	d.typ = typ
	return num, nil
}

// Fields runs the tag loop: field is called for every tag and must consume
// the value with one accessor, or return ErrSkip. Errors are prefixed with
// the message name and field number.
func (d *Decoder) Fields(name string, field func(d *Decoder, num protowire.Number) error) error {
	for {
		num, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		err = field(d, num)
		if errors.Is(err, ErrSkip) {
			err = d.Skip(num)
		}
		if err != nil {
			return fmt.Errorf("%s field %d: %w", name, num, err)
		}
	}
}

func (d *Decoder) expect(typ protowire.Type) error {
	if d.typ != typ {
		return fmt.Errorf("unexpected wire type %d (want %d)", d.typ, typ)
	}
	return nil
}

// Varint consumes a varint field.
func (d *Decoder) Varint() (uint64, error) {
	if err := d.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(d.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.data = d.data[n:]
	return v, nil
}

// Int32 consumes an int32 or enum field.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Varint()
	return int32(v), err //nolint:gosec // G115: proto int32 fields are sign-extended varints.
}

// Int64 consumes an int64 field.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Varint()
	return int64(v), err //nolint:gosec // G115: proto int64 fields are two's complement varints.
}

// Bool consumes a bool field.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Varint()
	return v != 0, err
}

// Bytes consumes a length-delimited field. The result aliases the input.
func (d *Decoder) Bytes() ([]byte, error) {
	if err := d.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(d.data)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	d.data = d.data[n:]
	return v, nil
}

// Str consumes a string field.
func (d *Decoder) Str() (string, error) {
	b, err := d.Bytes()
	return string(b), err
}

// Fixed32 consumes a fixed32 or float field.
func (d *Decoder) Fixed32() (uint32, error) {
	if err := d.expect(protowire.Fixed32Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed32(d.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.data = d.data[n:]
	return v, nil
}

// Fixed64 consumes a fixed64 or double field.
func (d *Decoder) Fixed64() (uint64, error) {
	if err := d.expect(protowire.Fixed64Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed64(d.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.data = d.data[n:]
	return v, nil
}

// Message consumes an embedded message and decodes it with read.
func (d *Decoder) Message(read func(*Decoder) error) error {
	b, err := d.Bytes()
	if err != nil {
		return err
	}
	return read(New(b))
}

// Empty consumes an embedded message whose content is irrelevant.
func (d *Decoder) Empty() error {
	_, err := d.Bytes()
	return err
}

// Int64s appends a repeated int64 field, packed or not.
func (d *Decoder) Int64s(dst []int64) ([]int64, error) {
	if d.typ != protowire.BytesType {
		v, err := d.Int64()
		return append(dst, v), err
	}
	b, err := d.Bytes()
	if err != nil {
		return dst, err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		dst = append(dst, int64(v)) //nolint:gosec // G115: two's complement varint.
		b = b[n:]
	}
	return dst, nil
}

// Skip discards the value of the current field.
func (d *Decoder) Skip(num protowire.Number) error {
	n := protowire.ConsumeFieldValue(num, d.typ, d.data)
	if n < 0 {
		return protowire.ParseError(n)
	}
	d.data = d.data[n:]
	return nil
}
