package onnx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var dataTypeNames = map[int32]string{
	TensorProtoUndefined:  "undefined",
	TensorProtoFloat:      "float32",
	TensorProtoUint8:      "uint8",
	TensorProtoInt8:       "int8",
	TensorProtoUint16:     "uint16",
	TensorProtoInt16:      "int16",
	TensorProtoInt32:      "int32",
	TensorProtoInt64:      "int64",
	TensorProtoString:     "string",
	TensorProtoBool:       "bool",
	TensorProtoFloat16:    "float16",
	TensorProtoDouble:     "float64",
	TensorProtoUint32:     "uint32",
	TensorProtoUint64:     "uint64",
	TensorProtoComplex64:  "complex64",
	TensorProtoComplex128: "complex128",
	TensorProtoBfloat16:   "bfloat16",
}

// DataTypeName returns the lowercase name of an ONNX element type.
func DataTypeName(dt int32) string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", dt)
}

// GraphInputs returns the graph inputs that are not initializers.
// Older exporters list every weight as a graph input as well.
func (m *ModelProto) GraphInputs() []ValueInfoProto {
	if m.Graph == nil {
		return nil
	}
	weights := make(map[string]struct{}, len(m.Graph.Initializers))
	for _, t := range m.Graph.Initializers {
		weights[t.Name] = struct{}{}
	}
	inputs := make([]ValueInfoProto, 0, len(m.Graph.Inputs))
	for _, in := range m.Graph.Inputs {
		if _, ok := weights[in.Name]; !ok {
			inputs = append(inputs, in)
		}
	}
	return inputs
}

// Opset returns the version of the default ("" or "ai.onnx") operator set, or 0.
func (m *ModelProto) Opset() int64 {
	for _, op := range m.OpsetImport {
		if op.Domain == "" || op.Domain == "ai.onnx" {
			return op.Version
		}
	}
	return 0
}

// OpCount is the number of nodes with one op type.
type OpCount struct {
	OpType string
	Count  int
}

// OpCounts returns the operator histogram, most frequent first, ties by name.
func (g *GraphProto) OpCounts() []OpCount {
	if g == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		op := n.OpType
		if n.Domain != "" && n.Domain != "ai.onnx" {
			op = n.Domain + "." + op
		}
		counts[op]++
	}
	out := make([]OpCount, 0, len(counts))
	for op, c := range counts {
		out = append(out, OpCount{OpType: op, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].OpType < out[j].OpType
	})
	return out
}

// ParameterCount returns the total number of elements across initializers.
func (g *GraphProto) ParameterCount() int64 {
	if g == nil {
		return 0
	}
	var total int64
	for _, t := range g.Initializers {
		n := int64(1)
		for _, d := range t.Dims {
			n *= d
		}
		total += n
	}
	return total
}

// Dims returns the shape as integers; symbolic and unknown dimensions are -1.
func (v *ValueInfoProto) Dims() []int64 {
	if v.Type == nil || v.Type.TensorType == nil || v.Type.TensorType.Shape == nil {
		return nil
	}
	dims := make([]int64, len(v.Type.TensorType.Shape.Dims))
	for i, d := range v.Type.TensorType.Shape.Dims {
		if d.DimParam != "" || d.DimValue <= 0 {
			dims[i] = -1
			continue
		}
		dims[i] = d.DimValue
	}
	return dims
}

// ElemType returns the element type, or TensorProtoUndefined for non-tensor values.
func (v *ValueInfoProto) ElemType() int32 {
	if v.Type == nil || v.Type.TensorType == nil {
		return TensorProtoUndefined
	}
	return v.Type.TensorType.ElemType
}

// TypeString formats the value type, e.g. "float32[batch × 1 × 481 × 2]".
func (v *ValueInfoProto) TypeString() string {
	if v.Type == nil || v.Type.TensorType == nil {
		return "unknown"
	}
	tt := v.Type.TensorType
	name := DataTypeName(tt.ElemType)
	if tt.Shape == nil {
		return name
	}
	dims := make([]string, len(tt.Shape.Dims))
	for i, d := range tt.Shape.Dims {
		switch {
		case d.DimParam != "":
			dims[i] = d.DimParam
		case d.DimValue > 0:
			dims[i] = strconv.FormatInt(d.DimValue, 10)
		default:
			dims[i] = "?"
		}
	}
	return name + "[" + strings.Join(dims, " × ") + "]"
}
