package coreml

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTextFormat(t *testing.T) {
	desc := &ModelDescription{
		Inputs: []FeatureDescription{{
			Name: "x",
			Type: &FeatureType{
				Kind:       FeatureKindMultiArray,
				MultiArray: &ArrayFeatureType{Shape: []int64{1, 3}, DataType: ArrayDataTypeFloat32},
			},
		}},
		Outputs: []FeatureDescription{{
			Name:             "y",
			ShortDescription: "score",
			Type:             &FeatureType{Kind: FeatureKindDouble, IsOptional: true},
		}},
		Metadata: &Metadata{
			Author:      "me",
			UserDefined: []KeyValue{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
		},
	}

	want := `input {
  name: "x"
  type {
    multiArrayType {
      shape: 1
      shape: 3
      dataType: FLOAT32
    }
  }
}
output {
  name: "y"
  shortDescription: "score"
  type {
    doubleType {
    }
    isOptional: true
  }
}
metadata {
  author: "me"
  userDefined {
    key: "a"
    value: "1"
  }
  userDefined {
    key: "b"
    value: "2"
  }
}
`
	if diff := cmp.Diff(want, desc.TextFormat()); diff != "" {
		t.Errorf("TextFormat mismatch (-want +got):\n%s", diff)
	}
}

func TestTextFormatImageAndRanges(t *testing.T) {
	def := float32(0.5)
	desc := &ModelDescription{
		Inputs: []FeatureDescription{
			{
				Name: "img",
				Type: &FeatureType{Kind: FeatureKindImage, Image: &ImageFeatureType{
					Width: 64, Height: 32, ColorSpace: ColorSpaceRGB,
					SizeRange: &ImageSizeRange{
						WidthRange:  SizeRange{LowerBound: 32, UpperBound: -1},
						HeightRange: SizeRange{LowerBound: 32, UpperBound: 128},
					},
				}},
			},
			{
				Name: "mask",
				Type: &FeatureType{Kind: FeatureKindMultiArray, MultiArray: &ArrayFeatureType{
					Shape:             []int64{4},
					DataType:          ArrayDataTypeFloat16,
					ShapeRange:        []SizeRange{{LowerBound: 1, UpperBound: 8}},
					FloatDefaultValue: &def,
				}},
			},
		},
		PredictedFeatureName: "label",
	}

	want := `input {
  name: "img"
  type {
    imageType {
      width: 64
      height: 32
      colorSpace: RGB
      imageSizeRange {
        widthRange {
          lowerBound: 32
          upperBound: -1
        }
        heightRange {
          lowerBound: 32
          upperBound: 128
        }
      }
    }
  }
}
input {
  name: "mask"
  type {
    multiArrayType {
      shape: 4
      dataType: FLOAT16
      shapeRange {
        sizeRanges {
          lowerBound: 1
          upperBound: 8
        }
      }
      floatDefaultValue: 0.5
    }
  }
}
predictedFeatureName: "label"
`
	if diff := cmp.Diff(want, desc.TextFormat()); diff != "" {
		t.Errorf("TextFormat mismatch (-want +got):\n%s", diff)
	}
}

func TestTextFormatNil(t *testing.T) {
	var desc *ModelDescription
	assert.Empty(t, desc.TextFormat())
}

func TestQuoteText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`a"b`, `"a\"b"`},
		{"it's", `"it\'s"`},
		{"line\nbreak", `"line\nbreak"`},
		{`back\slash`, `"back\\slash"`},
		{"1 × 2", `"1 \303\227 2"`},
		{"\x01", `"\001"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteText(tt.in), "input %q", tt.in)
	}
}

func TestFormatTextFloat(t *testing.T) {
	assert.Equal(t, "1.0", formatTextFloat(1, 64))
	assert.Equal(t, "0.5", formatTextFloat(0.5, 32))
	assert.Equal(t, "1e-05", formatTextFloat(1e-05, 64))
	assert.Equal(t, "-inf", formatTextFloat(math.Inf(-1), 64))
	assert.Equal(t, "1000000.0", formatTextFloat(1e6, 64))
	assert.Equal(t, "1234567.0", formatTextFloat(1234567, 64))
	assert.Equal(t, "0.0001", formatTextFloat(1e-4, 64))
	assert.Equal(t, "-2.5", formatTextFloat(-2.5, 32))
	assert.Equal(t, "0.0", formatTextFloat(0, 64))
	assert.Equal(t, "1e+16", formatTextFloat(1e16, 64))
}
