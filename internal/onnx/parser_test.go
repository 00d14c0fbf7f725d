package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestParseSimpleAdd(t *testing.T) {
	model, err := Parse(buildSimpleAddModel())
	require.NoError(t, err)

	assert.Equal(t, int64(7), model.IRVersion)
	assert.Equal(t, "pytorch", model.ProducerName)
	assert.Equal(t, "2.1.0", model.ProducerVersion)
	require.NotNil(t, model.Graph)
	assert.Equal(t, "simple_add", model.Graph.Name)
	require.Len(t, model.Graph.Nodes, 1)
	assert.Equal(t, "Add", model.Graph.Nodes[0].OpType)

	require.Len(t, model.Graph.Inputs, 2)
	require.Len(t, model.Graph.Outputs, 1)
	x := model.Graph.Inputs[0]
	assert.Equal(t, "X", x.Name)
	assert.Equal(t, int32(TensorProtoFloat), x.ElemType())
	assert.Equal(t, []int64{-1, 784}, x.Dims())
	assert.Equal(t, "float32[batch × 784]", x.TypeString())
}

func TestParseOpsetAndMetadata(t *testing.T) {
	model, err := Parse(buildSimpleAddModel())
	require.NoError(t, err)

	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(13), model.OpsetImport[0].Version)
	assert.Equal(t, int64(13), model.Opset())

	require.Len(t, model.MetadataProps, 1)
	assert.Equal(t, StringStringEntry{Key: "sample_rate", Value: "48000"}, model.MetadataProps[0])
}

func TestParseWithInitializer(t *testing.T) {
	model, err := Parse(buildMatMulModel())
	require.NoError(t, err)

	require.Len(t, model.Graph.Initializers, 1)
	w := model.Graph.Initializers[0]
	assert.Equal(t, "W", w.Name)
	assert.Equal(t, int32(TensorProtoFloat), w.DataType)
	assert.Equal(t, []int64{4, 4}, w.Dims)
	assert.Equal(t, 64, w.RawBytes)
	assert.Equal(t, int64(16), model.Graph.ParameterCount())

	// W is also listed as a graph input; only X is a real input.
	require.Len(t, model.Graph.Inputs, 2)
	inputs := model.GraphInputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, "X", inputs[0].Name)
}

func TestOpCounts(t *testing.T) {
	g := &GraphProto{Nodes: []NodeProto{
		{OpType: "Conv"}, {OpType: "Relu"}, {OpType: "Conv"},
		{OpType: "Add"}, {OpType: "Gelu", Domain: "com.microsoft"},
	}}
	assert.Equal(t, []OpCount{
		{OpType: "Conv", Count: 2},
		{OpType: "Add", Count: 1},
		{OpType: "Relu", Count: 1},
		{OpType: "com.microsoft.Gelu", Count: 1},
	}, g.OpCounts())

	var nilGraph *GraphProto
	assert.Nil(t, nilGraph.OpCounts())
	assert.Zero(t, nilGraph.ParameterCount())
}

func TestDataTypeName(t *testing.T) {
	assert.Equal(t, "float16", DataTypeName(TensorProtoFloat16))
	assert.Equal(t, "bfloat16", DataTypeName(TensorProtoBfloat16))
	assert.Equal(t, "type(99)", DataTypeName(99))
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "unknown", (&ValueInfoProto{}).TypeString())
	v := ValueInfoProto{Type: &TypeProto{TensorType: &TensorTypeProto{ElemType: TensorProtoInt64}}}
	assert.Equal(t, "int64", v.TypeString())
	assert.Nil(t, v.Dims())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.onnx")
	require.NoError(t, os.WriteFile(path, buildSimpleAddModel(), 0o600))

	model, err := ParseFile(path)
	require.NoError(t, err)
	require.NotNil(t, model.Graph)
	assert.Len(t, model.Graph.Nodes, 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.onnx"))
	assert.Error(t, err)
}

func TestParseEmptyData(t *testing.T) {
	model, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, model.Graph)
	assert.Nil(t, model.GraphInputs())
}

func TestParseTruncated(t *testing.T) {
	data := buildSimpleAddModel()
	_, err := Parse(data[:len(data)-3])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func buildSimpleAddModel() []byte {
	var model []byte
	model = appendVarint(model, 1, 7)
	model = appendString(model, 2, "pytorch")
	model = appendString(model, 3, "2.1.0")
	model = appendMessage(model, 8, buildOpset("", 13))
	model = appendMessage(model, 7, buildSimpleAddGraph())
	entry := appendString(nil, 1, "sample_rate")
	entry = appendString(entry, 2, "48000")
	return appendMessage(model, 14, entry)
}

func buildSimpleAddGraph() []byte {
	var node []byte
	node = appendString(node, 1, "X")
	node = appendString(node, 1, "Y")
	node = appendString(node, 2, "Z")
	node = appendString(node, 4, "Add")

	var graph []byte
	graph = appendString(graph, 2, "simple_add")
	graph = appendMessage(graph, 1, node)
	graph = appendMessage(graph, 11, buildValueInfo("X", TensorProtoFloat, []int64{-1, 784}))
	graph = appendMessage(graph, 11, buildValueInfo("Y", TensorProtoFloat, []int64{-1, 784}))
	return appendMessage(graph, 12, buildValueInfo("Z", TensorProtoFloat, []int64{-1, 784}))
}

func buildMatMulModel() []byte {
	var node []byte
	node = appendString(node, 1, "X")
	node = appendString(node, 1, "W")
	node = appendString(node, 2, "Y")
	node = appendString(node, 4, "MatMul")

	var graph []byte
	graph = appendString(graph, 2, "matmul_graph")
	graph = appendMessage(graph, 1, node)
	graph = appendMessage(graph, 5, buildTensorProto("W", TensorProtoFloat, []int64{4, 4}, make([]byte, 64)))
	graph = appendMessage(graph, 11, buildValueInfo("X", TensorProtoFloat, []int64{-1, 4}))
	graph = appendMessage(graph, 11, buildValueInfo("W", TensorProtoFloat, []int64{4, 4}))
	graph = appendMessage(graph, 12, buildValueInfo("Y", TensorProtoFloat, []int64{-1, 4}))

	var model []byte
	model = appendVarint(model, 1, 7)
	model = appendMessage(model, 8, buildOpset("", 13))
	return appendMessage(model, 7, graph)
}

func buildOpset(domain string, version uint64) []byte {
	return appendVarint(appendString(nil, 1, domain), 2, version)
}

// buildValueInfo creates a tensor ValueInfoProto; non-positive dims become "batch".
func buildValueInfo(name string, dtype int32, shape []int64) []byte {
	var dims []byte
	for _, d := range shape {
		if d > 0 {
			dims = appendMessage(dims, 1, appendVarint(nil, 1, uint64(d)))
		} else {
			dims = appendMessage(dims, 1, appendString(nil, 2, "batch"))
		}
	}
	tensorType := appendVarint(nil, 1, uint64(dtype))
	tensorType = appendMessage(tensorType, 2, dims)

	vi := appendString(nil, 1, name)
	return appendMessage(vi, 2, appendMessage(nil, 1, tensorType))
}

func buildTensorProto(name string, dtype int32, dims []int64, rawData []byte) []byte {
	var buf []byte
	for _, d := range dims {
		buf = appendVarint(buf, 1, uint64(d))
	}
	buf = appendVarint(buf, 2, uint64(dtype))
	buf = appendString(buf, 8, name)
	return appendMessage(buf, 9, rawData)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
