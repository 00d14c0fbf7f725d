package coreml

import (
	"fmt"
	"strings"
)

// Core ML specification structures (description subset of Model.proto and FeatureTypes.proto).

// Model is the decoded top-level CoreML.Specification.Model message.
type Model struct {
	SpecificationVersion int32             // Spec version (e.g., 7 for iOS 16 / ML programs)
	Description          *ModelDescription // Interface description
	IsUpdatable          bool              // Supports on-device training
	Type                 ModelType         // Which member of the model-type oneof is set
}

// ModelDescription describes the interface of a model.
type ModelDescription struct {
	Inputs                     []FeatureDescription
	Outputs                    []FeatureDescription
	PredictedFeatureName       string
	PredictedProbabilitiesName string
	States                     []FeatureDescription
	Functions                  []FunctionDescription
	DefaultFunctionName        string
	TrainingInputs             []FeatureDescription
	Metadata                   *Metadata
}

// FunctionDescription describes one function of a multifunction model.
type FunctionDescription struct {
	Name                       string
	Inputs                     []FeatureDescription
	Outputs                    []FeatureDescription
	PredictedFeatureName       string
	PredictedProbabilitiesName string
	States                     []FeatureDescription
}

// Metadata is the free-form model metadata block.
type Metadata struct {
	ShortDescription string
	VersionString    string
	Author           string
	License          string
	UserDefined      []KeyValue // Encounter order; renderers sort by key
}

// KeyValue is one map<string, string> entry.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// FeatureDescription names and types one input, output or state.
type FeatureDescription struct {
	Name             string
	ShortDescription string
	Type             *FeatureType
}

// FeatureKind identifies the member of the FeatureType oneof.
// Values are the protobuf field numbers.
type FeatureKind int32

// Feature kinds.
const (
	FeatureKindInvalid    FeatureKind = 0
	FeatureKindInt64      FeatureKind = 1
	FeatureKindDouble     FeatureKind = 2
	FeatureKindString     FeatureKind = 3
	FeatureKindImage      FeatureKind = 4
	FeatureKindMultiArray FeatureKind = 5
	FeatureKindDictionary FeatureKind = 6
	FeatureKindSequence   FeatureKind = 7
	FeatureKindState      FeatureKind = 8
)

// String returns the kind name used in formatted types.
func (k FeatureKind) String() string {
	switch k {
	case FeatureKindInt64:
		return "Int64"
	case FeatureKindDouble:
		return "Double"
	case FeatureKindString:
		return "String"
	case FeatureKindImage:
		return "Image"
	case FeatureKindMultiArray:
		return "MultiArray"
	case FeatureKindDictionary:
		return "Dictionary"
	case FeatureKindSequence:
		return "Sequence"
	case FeatureKindState:
		return "State"
	default:
		return "Invalid"
	}
}

// FeatureType is the decoded FeatureType message.
type FeatureType struct {
	Kind       FeatureKind
	Image      *ImageFeatureType
	MultiArray *ArrayFeatureType
	Dictionary *DictionaryFeatureType
	Sequence   *SequenceFeatureType
	State      *StateFeatureType
	IsOptional bool
}

// ArrayDataType is the element type of a multi-array.
type ArrayDataType int32

// Array data types. The high half encodes the family, the low half the bit width.
const (
	ArrayDataTypeInvalid ArrayDataType = 0
	ArrayDataTypeFloat16 ArrayDataType = 0x10000 | 16
	ArrayDataTypeFloat32 ArrayDataType = 0x10000 | 32
	ArrayDataTypeDouble  ArrayDataType = 0x10000 | 64
	ArrayDataTypeInt8    ArrayDataType = 0x20000 | 8
	ArrayDataTypeInt32   ArrayDataType = 0x20000 | 32
)

// String returns the Core ML display name (e.g., "Float16").
func (t ArrayDataType) String() string {
	switch t {
	case ArrayDataTypeFloat16:
		return "Float16"
	case ArrayDataTypeFloat32:
		return "Float32"
	case ArrayDataTypeDouble:
		return "Double"
	case ArrayDataTypeInt8:
		return "Int8"
	case ArrayDataTypeInt32:
		return "Int32"
	default:
		return fmt.Sprintf("ArrayDataType(%d)", int32(t))
	}
}

// ProtoName returns the protobuf enum value name (e.g., "FLOAT16").
func (t ArrayDataType) ProtoName() string {
	switch t {
	case ArrayDataTypeInvalid:
		return "INVALID_ARRAY_DATA_TYPE"
	case ArrayDataTypeFloat16:
		return "FLOAT16"
	case ArrayDataTypeFloat32:
		return "FLOAT32"
	case ArrayDataTypeDouble:
		return "DOUBLE"
	case ArrayDataTypeInt8:
		return "INT8"
	case ArrayDataTypeInt32:
		return "INT32"
	default:
		return fmt.Sprintf("%d", int32(t))
	}
}

// ArrayFeatureType describes a multi-array feature.
type ArrayFeatureType struct {
	Shape            []int64
	DataType         ArrayDataType
	EnumeratedShapes [][]int64   // Shape flexibility: explicit shape list
	ShapeRange       []SizeRange // Shape flexibility: per-dimension ranges

	IntDefaultValue    *int32
	FloatDefaultValue  *float32
	DoubleDefaultValue *float64
}

// SizeRange bounds one flexible dimension. UpperBound < 0 means unbounded.
type SizeRange struct {
	LowerBound uint64
	UpperBound int64
}

// ColorSpace is the pixel layout of an image feature.
type ColorSpace int32

// Image color spaces.
const (
	ColorSpaceInvalid          ColorSpace = 0
	ColorSpaceGrayscale        ColorSpace = 10
	ColorSpaceRGB              ColorSpace = 20
	ColorSpaceBGR              ColorSpace = 30
	ColorSpaceGrayscaleFloat16 ColorSpace = 40
)

// ProtoName returns the protobuf enum value name.
func (c ColorSpace) ProtoName() string {
	switch c {
	case ColorSpaceInvalid:
		return "INVALID_COLOR_SPACE"
	case ColorSpaceGrayscale:
		return "GRAYSCALE"
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceBGR:
		return "BGR"
	case ColorSpaceGrayscaleFloat16:
		return "GRAYSCALE_FLOAT16"
	default:
		return fmt.Sprintf("%d", int32(c))
	}
}

// ImageFeatureType describes an image feature.
type ImageFeatureType struct {
	Width           int64
	Height          int64
	ColorSpace      ColorSpace
	EnumeratedSizes []ImageSize
	SizeRange       *ImageSizeRange
}

// ImageSize is one allowed image size.
type ImageSize struct {
	Width  uint64
	Height uint64
}

// ImageSizeRange bounds flexible image sizes.
type ImageSizeRange struct {
	WidthRange  SizeRange
	HeightRange SizeRange
}

// DictionaryFeatureType describes a dictionary feature. Values are always doubles.
type DictionaryFeatureType struct {
	KeyKind FeatureKind // FeatureKindInt64 or FeatureKindString
}

// SequenceFeatureType describes a sequence feature.
type SequenceFeatureType struct {
	ElementKind FeatureKind // FeatureKindInt64 or FeatureKindString
	SizeRange   *SizeRange
}

// StateFeatureType describes a stateful buffer.
type StateFeatureType struct {
	Array *ArrayFeatureType
}

// ModelType identifies which member of the Model.Type oneof is set.
// Values are the protobuf field numbers.
type ModelType int32

// Model types.
const (
	ModelTypeUnknown                     ModelType = 0
	ModelTypePipelineClassifier          ModelType = 200
	ModelTypePipelineRegressor           ModelType = 201
	ModelTypePipeline                    ModelType = 202
	ModelTypeGLMRegressor                ModelType = 300
	ModelTypeSupportVectorRegressor      ModelType = 301
	ModelTypeTreeEnsembleRegressor       ModelType = 302
	ModelTypeNeuralNetworkRegressor      ModelType = 303
	ModelTypeBayesianProbitRegressor     ModelType = 304
	ModelTypeGLMClassifier               ModelType = 400
	ModelTypeSupportVectorClassifier     ModelType = 401
	ModelTypeTreeEnsembleClassifier      ModelType = 402
	ModelTypeNeuralNetworkClassifier     ModelType = 403
	ModelTypeKNearestNeighborsClassifier ModelType = 404
	ModelTypeNeuralNetwork               ModelType = 500
	ModelTypeItemSimilarityRecommender   ModelType = 501
	ModelTypeMLProgram                   ModelType = 502
	ModelTypeCustomModel                 ModelType = 555
	ModelTypeLinkedModel                 ModelType = 556
	ModelTypeClassConfidenceThresholding ModelType = 560
	ModelTypeOneHotEncoder               ModelType = 600
	ModelTypeImputer                     ModelType = 601
	ModelTypeFeatureVectorizer           ModelType = 602
	ModelTypeDictVectorizer              ModelType = 603
	ModelTypeScaler                      ModelType = 604
	ModelTypeCategoricalMapping          ModelType = 606
	ModelTypeNormalizer                  ModelType = 607
	ModelTypeArrayFeatureExtractor       ModelType = 609
	ModelTypeNonMaximumSuppression       ModelType = 610
	ModelTypeIdentity                    ModelType = 900
	ModelTypeTextClassifier              ModelType = 2000
	ModelTypeWordTagger                  ModelType = 2001
	ModelTypeVisionFeaturePrint          ModelType = 2002
	ModelTypeSoundAnalysisPreprocessing  ModelType = 2003
	ModelTypeGazetteer                   ModelType = 2004
	ModelTypeWordEmbedding               ModelType = 2005
	ModelTypeAudioFeaturePrint           ModelType = 2006
	ModelTypeSerializedModel             ModelType = 3000
)

var modelTypeNames = map[ModelType]string{
	ModelTypePipelineClassifier:          "pipelineClassifier",
	ModelTypePipelineRegressor:           "pipelineRegressor",
	ModelTypePipeline:                    "pipeline",
	ModelTypeGLMRegressor:                "glmRegressor",
	ModelTypeSupportVectorRegressor:      "supportVectorRegressor",
	ModelTypeTreeEnsembleRegressor:       "treeEnsembleRegressor",
	ModelTypeNeuralNetworkRegressor:      "neuralNetworkRegressor",
	ModelTypeBayesianProbitRegressor:     "bayesianProbitRegressor",
	ModelTypeGLMClassifier:               "glmClassifier",
	ModelTypeSupportVectorClassifier:     "supportVectorClassifier",
	ModelTypeTreeEnsembleClassifier:      "treeEnsembleClassifier",
	ModelTypeNeuralNetworkClassifier:     "neuralNetworkClassifier",
	ModelTypeKNearestNeighborsClassifier: "kNearestNeighborsClassifier",
	ModelTypeNeuralNetwork:               "neuralNetwork",
	ModelTypeItemSimilarityRecommender:   "itemSimilarityRecommender",
	ModelTypeMLProgram:                   "mlProgram",
	ModelTypeCustomModel:                 "customModel",
	ModelTypeLinkedModel:                 "linkedModel",
	ModelTypeClassConfidenceThresholding: "classConfidenceThresholding",
	ModelTypeOneHotEncoder:               "oneHotEncoder",
	ModelTypeImputer:                     "imputer",
	ModelTypeFeatureVectorizer:           "featureVectorizer",
	ModelTypeDictVectorizer:              "dictVectorizer",
	ModelTypeScaler:                      "scaler",
	ModelTypeCategoricalMapping:          "categoricalMapping",
	ModelTypeNormalizer:                  "normalizer",
	ModelTypeArrayFeatureExtractor:       "arrayFeatureExtractor",
	ModelTypeNonMaximumSuppression:       "nonMaximumSuppression",
	ModelTypeIdentity:                    "identity",
	ModelTypeTextClassifier:              "textClassifier",
	ModelTypeWordTagger:                  "wordTagger",
	ModelTypeVisionFeaturePrint:          "visionFeaturePrint",
	ModelTypeSoundAnalysisPreprocessing:  "soundAnalysisPreprocessing",
	ModelTypeGazetteer:                   "gazetteer",
	ModelTypeWordEmbedding:               "wordEmbedding",
	ModelTypeAudioFeaturePrint:           "audioFeaturePrint",
	ModelTypeSerializedModel:             "serializedModel",
}

// String returns the oneof member name (e.g., "mlProgram").
func (t ModelType) String() string {
	if name, ok := modelTypeNames[t]; ok {
		return name
	}
	if t == ModelTypeUnknown {
		return "unknown"
	}
	return fmt.Sprintf("unknown(%d)", int32(t))
}

// modelTypeByName resolves a oneof member name, case-insensitively.
func modelTypeByName(name string) ModelType {
	for t, n := range modelTypeNames {
		if strings.EqualFold(n, name) {
			return t
		}
	}
	return ModelTypeUnknown
}
