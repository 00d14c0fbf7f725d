package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/metalvoice/mlinspect/internal/onnx"
)

// maxOpsListed bounds the operator histogram in details.
const maxOpsListed = 8

func inspectONNX(path string) (*Report, error) {
	model, err := onnx.ParseFile(path)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Inputs: onnxFeatures(model.GraphInputs()),
	}
	meta := []KeyValue{
		{"producer_name", model.ProducerName},
		{"producer_version", model.ProducerVersion},
		{"domain", model.Domain},
		{"doc_string", model.DocString},
	}
	if model.ModelVersion != 0 {
		meta = append(meta, KeyValue{"model_version", strconv.FormatInt(model.ModelVersion, 10)})
	}
	for _, kv := range meta {
		if kv.Value != "" {
			report.Metadata = append(report.Metadata, kv)
		}
	}
	for _, p := range model.MetadataProps {
		report.Metadata = append(report.Metadata, KeyValue{Key: p.Key, Value: p.Value})
	}

	report.addDetail("ir version", strconv.FormatInt(model.IRVersion, 10))
	if v := model.Opset(); v != 0 {
		report.addDetail("opset ai.onnx", strconv.FormatInt(v, 10))
	}
	for _, op := range model.OpsetImport {
		if op.Domain != "" && op.Domain != "ai.onnx" {
			report.addDetail("opset "+op.Domain, strconv.FormatInt(op.Version, 10))
		}
	}

	if g := model.Graph; g != nil {
		report.Outputs = onnxFeatures(g.Outputs)
		report.addDetail("graph", g.Name)
		report.addDetail("nodes", humanize.Comma(int64(len(g.Nodes))))
		report.addDetail("initializers", humanize.Comma(int64(len(g.Initializers))))
		report.addDetail("parameters", humanize.Comma(g.ParameterCount()))
		report.addDetail("operators", opSummary(g.OpCounts()))
	}
	return report, nil
}

func onnxFeatures(values []onnx.ValueInfoProto) []Feature {
	features := make([]Feature, 0, len(values))
	for i := range values {
		v := &values[i]
		features = append(features, Feature{
			Name:        v.Name,
			Description: v.DocString,
			Type:        v.TypeString(),
			DataType:    onnx.DataTypeName(v.ElemType()),
			Shape:       v.Dims(),
		})
	}
	return features
}

func opSummary(counts []onnx.OpCount) string {
	parts := make([]string, 0, maxOpsListed+1)
	for i, c := range counts {
		if i == maxOpsListed {
			parts = append(parts, fmt.Sprintf("+%d more", len(counts)-maxOpsListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%s×%d", c.OpType, c.Count))
	}
	return strings.Join(parts, ", ")
}
