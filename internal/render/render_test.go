package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/metalvoice/mlinspect/internal/inspect"
)

func sampleReport() *inspect.Report {
	return &inspect.Report{
		Path:   "DeepFilterNet3_Streaming.mlpackage",
		Format: inspect.FormatCoreMLPackage,
		Spec:   "input {\n  name: \"spec_buf\"\n}\n",
		Inputs: []inspect.Feature{{
			Name:     "spec_buf",
			Type:     "MultiArray (Float16 1 × 481 × 2)",
			DataType: "Float16",
			Shape:    []int64{1, 481, 2},
		}},
		Outputs: []inspect.Feature{{
			Name:        "lsnr",
			Description: "Local SNR estimate",
			Type:        "MultiArray (Float16 1)",
		}},
		Details: []inspect.KeyValue{{Key: "model type", Value: "mlProgram"}},
		Size:    1536,
	}
}

func render(t *testing.T, opts Options, results []inspect.Result) string {
	t.Helper()
	var buf bytes.Buffer
	r, err := New(&buf, opts)
	require.NoError(t, err)
	require.NoError(t, r.Render(results))
	return buf.String()
}

func TestTextSingle(t *testing.T) {
	got := render(t, Options{}, []inspect.Result{{Path: "x", Report: sampleReport()}})

	want := `--- MODEL SPEC ---
input {
  name: "spec_buf"
}

--- INPUTS ---
Name: spec_buf
Type: MultiArray (Float16 1 × 481 × 2)
--- OUTPUTS ---
Name: lsnr
Type: MultiArray (Float16 1)
Local SNR estimate
--- PACKAGE ---
Format: mlpackage (Core ML model package (directory with Manifest.json))
Size: 1.5 kB (1,536 bytes)
model type: mlProgram
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("text output mismatch (-want +got):\n%s", diff)
	}
}

func TestTextStatesAndChecksum(t *testing.T) {
	rep := sampleReport()
	rep.States = []inspect.Feature{{Name: "cache", Type: "State (Float16 1 × 256)"}}
	rep.Checksum = "abc123"

	got := render(t, Options{}, []inspect.Result{{Report: rep}})
	assert.Contains(t, got, "--- STATES ---\nName: cache\nType: State (Float16 1 × 256)\n--- PACKAGE ---\n")
	assert.Contains(t, got, "SHA-256: abc123\n")
}

func TestTextMetadataWithoutSpec(t *testing.T) {
	rep := &inspect.Report{
		Format:   inspect.FormatGGUF,
		Metadata: []inspect.KeyValue{{Key: "general.architecture", Value: "whisper"}},
	}
	got := render(t, Options{}, []inspect.Result{{Report: rep}})
	assert.Contains(t, got, "--- MODEL SPEC ---\ngeneral.architecture: whisper\n\n--- INPUTS ---\n--- OUTPUTS ---\n")
}

func TestTextMultipleWithError(t *testing.T) {
	got := render(t, Options{}, []inspect.Result{
		{Path: "a.mlpackage", Report: sampleReport()},
		{Path: "b.mlpackage", Err: fmt.Errorf("%w: b.mlpackage", inspect.ErrNotFound)},
	})

	assert.True(t, bytes.HasPrefix([]byte(got), []byte("=== a.mlpackage ===\n--- MODEL SPEC ---\n")))
	assert.Contains(t, got, "model type: mlProgram\n\n=== b.mlpackage ===\nError: inspect: no such file or directory: b.mlpackage\n")
}

func TestTextErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.Render([]inspect.Result{{Err: inspect.ErrUnsupportedFormat}}))
	assert.Equal(t, "Error: inspect: unsupported model format\n", buf.String())
}

func TestTextColor(t *testing.T) {
	got := render(t, Options{Color: true}, []inspect.Result{{Report: sampleReport()}})
	assert.Contains(t, got, "\x1b[1m--- INPUTS ---\x1b[0m\n")

	plain := render(t, Options{Color: false}, []inspect.Result{{Report: sampleReport()}})
	assert.NotContains(t, plain, "\x1b[")
}

func TestJSON(t *testing.T) {
	got := render(t, Options{Format: FormatJSON}, []inspect.Result{{Report: sampleReport()}})

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "mlpackage", doc["format"])
	assert.Equal(t, "DeepFilterNet3_Streaming.mlpackage", doc["path"])
	assert.InDelta(t, 1536, doc["size"], 0)
	inputs, ok := doc["inputs"].([]any)
	require.True(t, ok)
	assert.Len(t, inputs, 1)
	assert.NotContains(t, doc, "sha256")
}

func TestJSONMultipleWithError(t *testing.T) {
	got := render(t, Options{Format: FormatJSON}, []inspect.Result{
		{Path: "a", Report: sampleReport()},
		{Path: "b", Err: inspect.ErrMalformed},
	})

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, map[string]any{"path": "b", "error": "inspect: malformed model"}, docs[1])
}

func TestYAML(t *testing.T) {
	got := render(t, Options{Format: FormatYAML}, []inspect.Result{{Report: sampleReport()}})

	assert.Contains(t, got, "format: mlpackage\n")
	assert.Contains(t, got, "shape: [1, 481, 2]\n")

	var doc struct {
		Format string `yaml:"format"`
		Inputs []struct {
			Name string `yaml:"name"`
		} `yaml:"inputs"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "mlpackage", doc.Format)
	require.Len(t, doc.Inputs, 1)
	assert.Equal(t, "spec_buf", doc.Inputs[0].Name)
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
