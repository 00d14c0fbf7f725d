package coreml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Compiled model layout constants.
const (
	CompiledMetadataName = "metadata.json"
	CompiledDataName     = "coremldata.bin"
)

// CompiledInfo holds compiler-emitted fields that have no spec counterpart.
type CompiledInfo struct {
	GeneratedClassName    string
	StoragePrecision      string
	MetadataOutputVersion string
}

// Compiled is an opened .mlmodelc directory.
type Compiled struct {
	Path  string
	Model *Model
	Info  CompiledInfo
}

// IsCompiled reports whether dir looks like a compiled model.
func IsCompiled(dir string) bool {
	if strings.EqualFold(filepath.Ext(dir), ".mlmodelc") {
		return true
	}
	_, errMeta := os.Stat(filepath.Join(dir, CompiledMetadataName))
	_, errData := os.Stat(filepath.Join(dir, CompiledDataName))
	return errMeta == nil && errData == nil
}

// OpenCompiled reads <dir>/metadata.json.
//
//nolint:gosec // G304: Model path is provided by user.
func OpenCompiled(dir string) (*Compiled, error) {
	data, err := os.ReadFile(filepath.Join(dir, CompiledMetadataName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCompiledMetadata, err)
	}
	model, info, err := ParseCompiledMetadata(data)
	if err != nil {
		return nil, err
	}
	return &Compiled{Path: dir, Model: model, Info: info}, nil
}

// ParseCompiledMetadata builds a Model from the compiler's metadata.json.
// The file is a one-element array; a bare object is accepted too.
func ParseCompiledMetadata(data []byte) (*Model, CompiledInfo, error) {
	if !gjson.ValidBytes(data) {
		return nil, CompiledInfo{}, fmt.Errorf("%w: not valid JSON", ErrInvalidCompiledMetadata)
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		root = root.Get("0")
	}
	if !root.IsObject() {
		return nil, CompiledInfo{}, fmt.Errorf("%w: expected an object", ErrInvalidCompiledMetadata)
	}

	desc := &ModelDescription{
		Inputs:  schemaFeatures(root.Get("inputSchema")),
		Outputs: schemaFeatures(root.Get("outputSchema")),
		States:  schemaFeatures(root.Get("stateSchema")),
	}

	meta := &Metadata{
		ShortDescription: root.Get("shortDescription").String(),
		VersionString:    firstString(root, "versionString", "version"),
		Author:           root.Get("author").String(),
		License:          root.Get("license").String(),
	}
	root.Get("userDefinedMetadata").ForEach(func(key, value gjson.Result) bool {
		meta.UserDefined = append(meta.UserDefined, KeyValue{Key: key.String(), Value: value.String()})
		return true
	})
	meta.UserDefined = SortedKeyValues(meta.UserDefined)
	if meta.ShortDescription != "" || meta.VersionString != "" || meta.Author != "" ||
		meta.License != "" || len(meta.UserDefined) > 0 {
		desc.Metadata = meta
	}

	model := &Model{
		SpecificationVersion: int32(root.Get("specificationVersion").Int()), //nolint:gosec // G115: spec versions are small.
		Description:          desc,
		IsUpdatable:          truthy(root.Get("isUpdatable")),
		Type:                 modelTypeByName(strings.TrimPrefix(root.Get("modelType.name").String(), "MLModelType_")),
	}

	info := CompiledInfo{
		GeneratedClassName:    root.Get("generatedClassName").String(),
		StoragePrecision:      root.Get("storagePrecision").String(),
		MetadataOutputVersion: root.Get("metadataOutputVersion").String(),
	}
	return model, info, nil
}

func schemaFeatures(schema gjson.Result) []FeatureDescription {
	var out []FeatureDescription
	for _, f := range schema.Array() {
		out = append(out, FeatureDescription{
			Name:             f.Get("name").String(),
			ShortDescription: f.Get("shortDescription").String(),
			Type:             schemaType(f),
		})
	}
	return out
}

// schemaType maps a compiled schema entry back to a FeatureType.
// Values in the schema are strings, including numbers and booleans.
func schemaType(f gjson.Result) *FeatureType {
	t := &FeatureType{IsOptional: truthy(f.Get("isOptional"))}
	switch f.Get("type").String() {
	case "Int64":
		t.Kind = FeatureKindInt64
	case "Double":
		t.Kind = FeatureKindDouble
	case "String":
		t.Kind = FeatureKindString
	case "Image":
		t.Kind = FeatureKindImage
		t.Image = &ImageFeatureType{
			Width:      f.Get("width").Int(),
			Height:     f.Get("height").Int(),
			ColorSpace: schemaColorSpace(f),
		}
	case "MultiArray":
		t.Kind = FeatureKindMultiArray
		t.MultiArray = schemaArray(f)
	case "State":
		t.Kind = FeatureKindState
		t.State = &StateFeatureType{Array: schemaArray(f)}
	case "Dictionary":
		t.Kind = FeatureKindDictionary
		t.Dictionary = &DictionaryFeatureType{KeyKind: FeatureKindString}
		if f.Get("keyType").String() == "Int64" {
			t.Dictionary.KeyKind = FeatureKindInt64
		}
	case "Sequence":
		t.Kind = FeatureKindSequence
		t.Sequence = &SequenceFeatureType{ElementKind: FeatureKindString}
		if f.Get("sequenceType").String() == "Int64" {
			t.Sequence.ElementKind = FeatureKindInt64
		}
	}
	return t
}

func schemaArray(f gjson.Result) *ArrayFeatureType {
	arr := &ArrayFeatureType{DataType: schemaDataType(f.Get("dataType").String())}
	// shape is a JSON array encoded as a string, e.g. "[1, 1, 10, 32]".
	for _, d := range gjson.Parse(f.Get("shape").String()).Array() {
		arr.Shape = append(arr.Shape, d.Int())
	}
	return arr
}

func schemaDataType(s string) ArrayDataType {
	switch s {
	case "Float16":
		return ArrayDataTypeFloat16
	case "Float32":
		return ArrayDataTypeFloat32
	case "Double", "Float64":
		return ArrayDataTypeDouble
	case "Int8":
		return ArrayDataTypeInt8
	case "Int32":
		return ArrayDataTypeInt32
	default:
		return ArrayDataTypeInvalid
	}
}

func schemaColorSpace(f gjson.Result) ColorSpace {
	switch strings.ToUpper(f.Get("colorspace").String()) {
	case "GRAYSCALE":
		return ColorSpaceGrayscale
	case "GRAYSCALE_FLOAT16":
		return ColorSpaceGrayscaleFloat16
	case "BGR":
		return ColorSpaceBGR
	case "RGB":
		return ColorSpaceRGB
	}
	if f.Get("isColor").Exists() && !truthy(f.Get("isColor")) {
		return ColorSpaceGrayscale
	}
	return ColorSpaceRGB
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// truthy accepts JSON booleans and the "0"/"1" strings the compiler emits.
func truthy(v gjson.Result) bool {
	if v.Type == gjson.String {
		return v.Str == "1" || strings.EqualFold(v.Str, "true")
	}
	return v.Bool()
}
