// Package coremltest writes synthetic Core ML models for tests.
package coremltest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// Array data type values as stored on the wire.
const (
	Float16 int32 = 0x10000 | 16
	Float32 int32 = 0x10000 | 32
	Double  int32 = 0x10000 | 64
	Int32   int32 = 0x20000 | 32
)

// MLProgramField is the Model.Type oneof field number of an ML program.
const MLProgramField protowire.Number = 502

// Feature is a synthetic feature. Kind selects the FeatureType member:
// "" or "multiArray", "int64", "double", "string".
type Feature struct {
	Name        string
	Description string
	Kind        string
	DataType    int32
	Shape       []int64
	Optional    bool
}

// Spec is a synthetic model spec.
type Spec struct {
	Version          int32
	Inputs           []Feature
	Outputs          []Feature
	States           []Feature
	ShortDescription string
	Author           string
	License          string
	VersionString    string
	UserDefined      map[string]string
	TypeField        protowire.Number // Model.Type oneof member; 0 for none
}

// DeepFilterNet returns the interface of the DeepFilterNet3 streaming model (trimmed).
func DeepFilterNet() Spec {
	return Spec{
		Version: 7,
		Inputs: []Feature{
			{Name: "spec_buf", DataType: Float16, Shape: []int64{1, 1, 10, 481, 2}},
			{Name: "feat_erb_buf", DataType: Float16, Shape: []int64{1, 1, 10, 32}},
			{Name: "h_enc_in", DataType: Float16, Shape: []int64{1, 1, 256}},
		},
		Outputs: []Feature{
			{Name: "enhanced_spec", DataType: Float16, Shape: []int64{1, 1, 1, 481, 2}},
			{Name: "lsnr", Description: "Local SNR estimate", DataType: Float16, Shape: []int64{1, 1, 1}},
		},
		ShortDescription: "DeepFilterNet3 streaming denoiser",
		Author:           "metalvoice",
		UserDefined: map[string]string{
			"com.github.apple.coremltools.version": "8.0",
			"com.github.apple.coremltools.source":  "torch==2.1.0",
		},
		TypeField: MLProgramField,
	}
}

// Marshal encodes the spec as a CoreML.Specification.Model message.
func (s Spec) Marshal() []byte {
	var desc []byte
	for _, f := range s.Inputs {
		desc = appendMessage(desc, 1, f.marshal())
	}
	for _, f := range s.Outputs {
		desc = appendMessage(desc, 10, f.marshal())
	}
	for _, f := range s.States {
		desc = appendMessage(desc, 13, f.marshal())
	}

	var meta []byte
	meta = appendString(meta, 1, s.ShortDescription)
	meta = appendString(meta, 2, s.VersionString)
	meta = appendString(meta, 3, s.Author)
	meta = appendString(meta, 4, s.License)
	for _, k := range sortedKeys(s.UserDefined) {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, s.UserDefined[k])
		meta = appendMessage(meta, 100, entry)
	}
	if len(meta) > 0 {
		desc = appendMessage(desc, 100, meta)
	}

	var model []byte
	if s.Version != 0 {
		model = protowire.AppendTag(model, 1, protowire.VarintType)
		model = protowire.AppendVarint(model, uint64(s.Version))
	}
	model = appendMessage(model, 2, desc)
	if s.TypeField != 0 {
		// Opaque body standing in for the network / program.
		model = appendMessage(model, s.TypeField, []byte{0x0a, 0x02, 'o', 'k'})
	}
	return model
}

func (f Feature) marshal() []byte {
	var ft []byte
	switch f.Kind {
	case "int64":
		ft = appendMessage(ft, 1, nil)
	case "double":
		ft = appendMessage(ft, 2, nil)
	case "string":
		ft = appendMessage(ft, 3, nil)
	default:
		var packed []byte
		for _, d := range f.Shape {
			packed = protowire.AppendVarint(packed, uint64(d))
		}
		var arr []byte
		if len(packed) > 0 {
			arr = appendMessage(arr, 1, packed)
		}
		arr = protowire.AppendTag(arr, 2, protowire.VarintType)
		arr = protowire.AppendVarint(arr, uint64(f.DataType))
		ft = appendMessage(ft, 5, arr)
	}
	if f.Optional {
		ft = protowire.AppendTag(ft, 1000, protowire.VarintType)
		ft = protowire.AppendVarint(ft, 1)
	}

	var fd []byte
	fd = appendString(fd, 1, f.Name)
	fd = appendString(fd, 2, f.Description)
	return appendMessage(fd, 3, ft)
}

// WritePackage writes <dir>/<name>.mlpackage with the spec as root model and a
// weights directory of weightBytes bytes. It returns the package path.
func WritePackage(tb testing.TB, dir, name string, spec Spec, weightBytes int) string {
	tb.Helper()

	pkg := filepath.Join(dir, name+".mlpackage")
	coreDir := filepath.Join(pkg, "Data", "com.apple.CoreML")
	require.NoError(tb, os.MkdirAll(filepath.Join(coreDir, "weights"), 0o755))
	require.NoError(tb, os.WriteFile(filepath.Join(coreDir, "model.mlmodel"), spec.Marshal(), 0o600))
	require.NoError(tb, os.WriteFile(filepath.Join(coreDir, "weights", "weight.bin"), make([]byte, weightBytes), 0o600))

	manifest := map[string]any{
		"fileFormatVersion": "1.0.0",
		"itemInfoEntries": map[string]any{
			"5B2E4C1A-0000-4000-8000-000000000001": map[string]string{
				"author":      "com.apple.CoreML",
				"description": "CoreML Model Specification",
				"name":        "model.mlmodel",
				"path":        "com.apple.CoreML/model.mlmodel",
			},
			"5B2E4C1A-0000-4000-8000-000000000002": map[string]string{
				"author":      "com.apple.CoreML",
				"description": "CoreML Model Weights",
				"name":        "weights",
				"path":        "com.apple.CoreML/weights",
			},
		},
		"rootModelIdentifier": "5B2E4C1A-0000-4000-8000-000000000001",
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	require.NoError(tb, err)
	require.NoError(tb, os.WriteFile(filepath.Join(pkg, "Manifest.json"), data, 0o600))
	return pkg
}

// WriteSpec writes <dir>/<name>.mlmodel and returns its path.
func WriteSpec(tb testing.TB, dir, name string, spec Spec) string {
	tb.Helper()

	path := filepath.Join(dir, name+".mlmodel")
	require.NoError(tb, os.WriteFile(path, spec.Marshal(), 0o600))
	return path
}

// WriteCompiled writes <dir>/<name>.mlmodelc with a compiler-style metadata.json.
func WriteCompiled(tb testing.TB, dir, name string, spec Spec) string {
	tb.Helper()

	path := filepath.Join(dir, name+".mlmodelc")
	require.NoError(tb, os.MkdirAll(path, 0o755))

	schema := func(features []Feature) []map[string]string {
		out := make([]map[string]string, 0, len(features))
		for _, f := range features {
			out = append(out, f.schema())
		}
		return out
	}
	meta := []map[string]any{{
		"metadataOutputVersion": "3.0",
		"shortDescription":      spec.ShortDescription,
		"author":                spec.Author,
		"license":               spec.License,
		"specificationVersion":  spec.Version,
		"storagePrecision":      "Float16",
		"inputSchema":           schema(spec.Inputs),
		"outputSchema":          schema(spec.Outputs),
		"stateSchema":           schema(spec.States),
		"userDefinedMetadata":   spec.UserDefined,
		"modelType":             map[string]string{"name": "MLModelType_mlProgram"},
		"generatedClassName":    name,
		"method":                "predict",
	}}
	data, err := json.MarshalIndent(meta, "", "  ")
	require.NoError(tb, err)
	require.NoError(tb, os.WriteFile(filepath.Join(path, "metadata.json"), data, 0o600))
	require.NoError(tb, os.WriteFile(filepath.Join(path, "coremldata.bin"), []byte{0}, 0o600))
	return path
}

func (f Feature) schema() map[string]string {
	optional := "0"
	if f.Optional {
		optional = "1"
	}
	entry := map[string]string{
		"name":             f.Name,
		"shortDescription": f.Description,
		"isOptional":       optional,
	}
	switch f.Kind {
	case "int64":
		entry["type"] = "Int64"
	case "double":
		entry["type"] = "Double"
	case "string":
		entry["type"] = "String"
	default:
		dims := make([]string, len(f.Shape))
		for i, d := range f.Shape {
			dims[i] = fmt.Sprint(d)
		}
		entry["type"] = "MultiArray"
		entry["dataType"] = dataTypeName(f.DataType)
		entry["shape"] = "[" + strings.Join(dims, ", ") + "]"
		entry["hasShapeFlexibility"] = "0"
	}
	return entry
}

func dataTypeName(dt int32) string {
	switch dt {
	case Float16:
		return "Float16"
	case Float32:
		return "Float32"
	case Double:
		return "Double"
	case Int32:
		return "Int32"
	default:
		return "Invalid"
	}
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
