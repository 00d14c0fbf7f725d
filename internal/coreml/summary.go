package coreml

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns the formatted type as Xcode shows it,
// e.g. "MultiArray (Float16 1 × 1 × 10 × 32)".
func (t *FeatureType) String() string {
	if t == nil {
		return "Invalid"
	}
	s := t.formatted()
	if t.IsOptional {
		s += "?"
	}
	return s
}

func (t *FeatureType) formatted() string {
	switch t.Kind {
	case FeatureKindInt64, FeatureKindDouble, FeatureKindString:
		return t.Kind.String()
	case FeatureKindImage:
		if t.Image == nil {
			return "Image"
		}
		return fmt.Sprintf("Image (%s %d × %d)", colorName(t.Image.ColorSpace), t.Image.Width, t.Image.Height)
	case FeatureKindMultiArray:
		return "MultiArray (" + arrayLabel(t.MultiArray) + ")"
	case FeatureKindDictionary:
		key := FeatureKindString
		if t.Dictionary != nil && t.Dictionary.KeyKind != FeatureKindInvalid {
			key = t.Dictionary.KeyKind
		}
		return "Dictionary (" + key.String() + " → Double)"
	case FeatureKindSequence:
		elem := FeatureKindString
		if t.Sequence != nil && t.Sequence.ElementKind != FeatureKindInvalid {
			elem = t.Sequence.ElementKind
		}
		return "Sequence (" + elem.String() + ")"
	case FeatureKindState:
		var arr *ArrayFeatureType
		if t.State != nil {
			arr = t.State.Array
		}
		return "State (" + arrayLabel(arr) + ")"
	default:
		return "Invalid"
	}
}

func arrayLabel(a *ArrayFeatureType) string {
	if a == nil {
		return "Invalid"
	}
	if len(a.Shape) == 0 {
		return a.DataType.String()
	}
	return a.DataType.String() + " " + ShapeString(a.Shape)
}

func colorName(c ColorSpace) string {
	switch c {
	case ColorSpaceGrayscale:
		return "Grayscale"
	case ColorSpaceGrayscaleFloat16:
		return "Grayscale16Half"
	default:
		return "Color"
	}
}

// ShapeString joins dimensions with " × ".
func ShapeString(shape []int64) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(dims, " × ")
}

// Summary describes the feature the way generated model classes document it,
// e.g. "1 × 1 × 10 × 32 4-dimensional array of 16-bit floats".
func (t *FeatureType) Summary() string {
	if t == nil {
		return "invalid feature"
	}
	switch t.Kind {
	case FeatureKindInt64:
		return "64-bit integer value"
	case FeatureKindDouble:
		return "double value"
	case FeatureKindString:
		return "string value"
	case FeatureKindImage:
		if t.Image == nil {
			return "image buffer"
		}
		kind := "color (kCVPixelFormatType_32BGRA)"
		switch t.Image.ColorSpace {
		case ColorSpaceGrayscale:
			kind = "grayscale (kCVPixelFormatType_OneComponent8)"
		case ColorSpaceGrayscaleFloat16:
			kind = "grayscale (kCVPixelFormatType_OneComponent16Half)"
		}
		return fmt.Sprintf("%s image buffer, %d pixels wide by %d pixels high", kind, t.Image.Width, t.Image.Height)
	case FeatureKindMultiArray:
		return arraySummary(t.MultiArray)
	case FeatureKindDictionary:
		key := "strings"
		if t.Dictionary != nil && t.Dictionary.KeyKind == FeatureKindInt64 {
			key = "64-bit integers"
		}
		return "dictionary mapping " + key + " to doubles"
	case FeatureKindSequence:
		if t.Sequence != nil && t.Sequence.ElementKind == FeatureKindInt64 {
			return "sequence of 64-bit integers"
		}
		return "sequence of strings"
	case FeatureKindState:
		if t.State == nil {
			return "state buffer"
		}
		return "state buffer of " + arraySummary(t.State.Array)
	default:
		return "invalid feature"
	}
}

func arraySummary(a *ArrayFeatureType) string {
	if a == nil {
		return "array"
	}
	elems := elementPhrase(a.DataType)
	if len(a.Shape) == 0 {
		return "array of " + elems
	}
	return fmt.Sprintf("%s %d-dimensional array of %s", ShapeString(a.Shape), len(a.Shape), elems)
}

func elementPhrase(t ArrayDataType) string {
	switch t {
	case ArrayDataTypeFloat16:
		return "16-bit floats"
	case ArrayDataTypeFloat32:
		return "floats"
	case ArrayDataTypeDouble:
		return "doubles"
	case ArrayDataTypeInt8:
		return "8-bit integers"
	case ArrayDataTypeInt32:
		return "32-bit integers"
	default:
		return "values"
	}
}
