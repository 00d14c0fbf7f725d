package inspect

import (
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/metalvoice/mlinspect/internal/safetensors"
)

func inspectSafeTensors(path string) (*Report, error) {
	header, err := safetensors.ParseFile(path)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	keys := make([]string, 0, len(header.Metadata))
	for k := range header.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.Metadata = append(report.Metadata, KeyValue{Key: k, Value: header.Metadata[k]})
	}

	dtypes := make(map[string]int)
	for dt, n := range header.DTypeHistogram() {
		dtypes[string(dt)] = n
	}

	report.addDetail("architecture", safetensors.DetectArchitecture(header.TensorNames()))
	report.addDetail("tensors", humanize.Comma(int64(len(header.Tensors))))
	report.addDetail("parameters", humanize.Comma(header.ParameterCount()))
	report.addDetail("dtypes", histogram(dtypes))
	report.addDetail("header size", humanize.IBytes(header.HeaderSize))
	return report, nil
}
