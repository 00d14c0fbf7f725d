package onnx

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/metalvoice/mlinspect/internal/mmapfile"
	"github.com/metalvoice/mlinspect/internal/protoscan"
)

// ErrMalformedModel is returned when the protobuf data is not a valid ModelProto.
var ErrMalformedModel = errors.New("onnx: malformed model")

// ParseFile parses an ONNX model from a memory-mapped file.
func ParseFile(path string) (*ModelProto, error) {
	model, err := mmapfile.ReadFile(path, Parse)
	if err != nil && !errors.Is(err, ErrMalformedModel) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return model, err
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := readModelProto(protoscan.New(data), model); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}
	return model, nil
}

type decoder = protoscan.Decoder

var errSkip = protoscan.ErrSkip

// readModelProto reads ModelProto message.
func readModelProto(d *decoder, m *ModelProto) error {
	return d.Fields("ModelProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // ir_version
			m.IRVersion, err = d.Int64()
		case 2: // producer_name
			m.ProducerName, err = d.Str()
		case 3: // producer_version
			m.ProducerVersion, err = d.Str()
		case 4: // domain
			m.Domain, err = d.Str()
		case 5: // model_version
			m.ModelVersion, err = d.Int64()
		case 6: // doc_string
			m.DocString, err = d.Str()
		case 7: // graph
			m.Graph = &GraphProto{}
			err = d.Message(func(sub *decoder) error { return readGraphProto(sub, m.Graph) })
		case 8: // opset_import
			var opset OperatorSetID
			err = d.Message(func(sub *decoder) error { return readOperatorSetID(sub, &opset) })
			m.OpsetImport = append(m.OpsetImport, opset)
		case 14: // metadata_props
			var entry StringStringEntry
			err = d.Message(func(sub *decoder) error { return readStringStringEntry(sub, &entry) })
			m.MetadataProps = append(m.MetadataProps, entry)
		default:
			return errSkip
		}
		return err
	})
}

// readGraphProto reads GraphProto message.
func readGraphProto(d *decoder, m *GraphProto) error {
	return d.Fields("GraphProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // node
			var node NodeProto
			err = d.Message(func(sub *decoder) error { return readNodeProto(sub, &node) })
			m.Nodes = append(m.Nodes, node)
		case 2: // name
			m.Name, err = d.Str()
		case 5: // initializer
			var tensor TensorProto
			err = d.Message(func(sub *decoder) error { return readTensorProto(sub, &tensor) })
			m.Initializers = append(m.Initializers, tensor)
		case 10: // doc_string
			m.DocString, err = d.Str()
		case 11: // input
			var vi ValueInfoProto
			err = d.Message(func(sub *decoder) error { return readValueInfoProto(sub, &vi) })
			m.Inputs = append(m.Inputs, vi)
		case 12: // output
			var vi ValueInfoProto
			err = d.Message(func(sub *decoder) error { return readValueInfoProto(sub, &vi) })
			m.Outputs = append(m.Outputs, vi)
		default:
			return errSkip
		}
		return err
	})
}

// readNodeProto reads NodeProto message.
func readNodeProto(d *decoder, m *NodeProto) error {
	return d.Fields("NodeProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 3: // name
			m.Name, err = d.Str()
		case 4: // op_type
			m.OpType, err = d.Str()
		case 7: // domain
			m.Domain, err = d.Str()
		default:
			return errSkip
		}
		return err
	})
}

// readTensorProto reads TensorProto message.
func readTensorProto(d *decoder, m *TensorProto) error {
	return d.Fields("TensorProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // dims
			m.Dims, err = d.Int64s(m.Dims)
		case 2: // data_type
			m.DataType, err = d.Int32()
		case 8: // name
			m.Name, err = d.Str()
		case 9: // raw_data
			var raw []byte
			raw, err = d.Bytes()
			m.RawBytes = len(raw)
		default:
			return errSkip
		}
		return err
	})
}

// readValueInfoProto reads ValueInfoProto message.
func readValueInfoProto(d *decoder, m *ValueInfoProto) error {
	return d.Fields("ValueInfoProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // name
			m.Name, err = d.Str()
		case 2: // type
			m.Type = &TypeProto{}
			err = d.Message(func(sub *decoder) error { return readTypeProto(sub, m.Type) })
		case 3: // doc_string
			m.DocString, err = d.Str()
		default:
			return errSkip
		}
		return err
	})
}

// readTypeProto reads TypeProto message.
func readTypeProto(d *decoder, m *TypeProto) error {
	return d.Fields("TypeProto", func(d *decoder, num protowire.Number) error {
		if num != 1 { // tensor_type
			return errSkip
		}
		m.TensorType = &TensorTypeProto{}
		return d.Message(func(sub *decoder) error { return readTensorTypeProto(sub, m.TensorType) })
	})
}

// readTensorTypeProto reads TensorTypeProto message.
func readTensorTypeProto(d *decoder, m *TensorTypeProto) error {
	return d.Fields("TensorTypeProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // elem_type
			m.ElemType, err = d.Int32()
		case 2: // shape
			m.Shape = &TensorShapeProto{}
			err = d.Message(func(sub *decoder) error { return readTensorShapeProto(sub, m.Shape) })
		default:
			return errSkip
		}
		return err
	})
}

// readTensorShapeProto reads TensorShapeProto message.
func readTensorShapeProto(d *decoder, m *TensorShapeProto) error {
	return d.Fields("TensorShapeProto", func(d *decoder, num protowire.Number) error {
		if num != 1 { // dim
			return errSkip
		}
		var dim DimensionProto
		err := d.Message(func(sub *decoder) error { return readDimensionProto(sub, &dim) })
		m.Dims = append(m.Dims, dim)
		return err
	})
}

// readDimensionProto reads DimensionProto message.
func readDimensionProto(d *decoder, m *DimensionProto) error {
	return d.Fields("DimensionProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // dim_value
			m.DimValue, err = d.Int64()
		case 2: // dim_param
			m.DimParam, err = d.Str()
		default:
			return errSkip
		}
		return err
	})
}

// readOperatorSetID reads OperatorSetID message.
func readOperatorSetID(d *decoder, m *OperatorSetID) error {
	return d.Fields("OperatorSetIdProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // domain
			m.Domain, err = d.Str()
		case 2: // version
			m.Version, err = d.Int64()
		default:
			return errSkip
		}
		return err
	})
}

// readStringStringEntry reads StringStringEntry message.
func readStringStringEntry(d *decoder, m *StringStringEntry) error {
	return d.Fields("StringStringEntryProto", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // key
			m.Key, err = d.Str()
		case 2: // value
			m.Value, err = d.Str()
		default:
			return errSkip
		}
		return err
	})
}
