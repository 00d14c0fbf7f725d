package inspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/metalvoice/mlinspect/internal/gguf"
)

func inspectGGUF(path string) (*Report, error) {
	file, err := gguf.ParseFile(path)
	if err != nil {
		return nil, err
	}

	report := &Report{Size: file.FileSize}
	for _, kv := range file.Metadata {
		report.Metadata = append(report.Metadata, KeyValue{Key: kv.Key, Value: kv.ValueString()})
	}

	report.addDetail("gguf version", strconv.FormatUint(uint64(file.Header.Version), 10))
	report.addDetail("architecture", file.Architecture())
	report.addDetail("name", file.Name())
	for _, d := range []struct {
		key string
		n   int
	}{
		{"context length", file.ContextLength()},
		{"embedding length", file.EmbeddingLength()},
		{"blocks", file.BlockCount()},
		{"attention heads", file.HeadCount()},
		{"kv heads", kvHeads(file)},
		{"vocabulary", file.VocabSize()},
	} {
		if d.n > 0 {
			report.addDetail(d.key, humanize.Comma(int64(d.n)))
		}
	}
	if t := file.GetTensor("token_embd.weight"); t != nil {
		report.addDetail("token embedding", t.Type.String()+" "+shape(t.Dimensions))
	}
	report.addDetail("tensors", humanize.Comma(int64(len(file.TensorInfo))))
	report.addDetail("parameters", humanize.Comma(int64(file.ParameterCount()))) //nolint:gosec // G115: element counts fit int64.
	report.addDetail("tensor types", histogram(file.TypeHistogram()))
	var dataSize uint64
	quantized := 0
	for i := range file.TensorInfo {
		dataSize += file.TensorInfo[i].Size()
		if file.TensorInfo[i].Type.IsQuantized() {
			quantized++
		}
	}
	if quantized > 0 {
		report.addDetail("quantized tensors", humanize.Comma(int64(quantized)))
	}
	report.addDetail("tensor data", humanize.IBytes(dataSize))
	report.addDetail("alignment", strconv.Itoa(file.Alignment))
	report.addDetail("data offset", strconv.FormatInt(file.TensorDataOffset, 10))
	return report, nil
}

// kvHeads returns the stored KV head count, or 0 when the key is absent.
func kvHeads(file *gguf.File) int {
	if _, ok := file.Lookup(file.Architecture() + ".attention.head_count_kv"); !ok {
		return 0
	}
	return file.HeadCountKV()
}

// shape formats dimensions as "4096×32000".
func shape(dims []uint64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return strings.Join(parts, "×")
}

// histogram formats counts as "Q4_K×120, F32×65", most frequent first.
func histogram(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s×%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
