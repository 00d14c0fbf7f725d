package coreml

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/metalvoice/mlinspect/internal/mmapfile"
	"github.com/metalvoice/mlinspect/internal/protoscan"
)

// ParseFile parses a protobuf model spec (.mlmodel) from a memory-mapped file.
func ParseFile(path string) (*Model, error) {
	model, err := mmapfile.ReadFile(path, Parse)
	if err != nil && !errors.Is(err, ErrMalformedSpec) {
		return nil, fmt.Errorf("read model spec: %w", err)
	}
	return model, err
}

// Parse parses a protobuf model spec from bytes.
func Parse(data []byte) (*Model, error) {
	model := &Model{}
	if err := readModel(protoscan.New(data), model); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSpec, err)
	}
	if model.Description == nil {
		model.Description = &ModelDescription{}
	}
	return model, nil
}

type decoder = protoscan.Decoder

var errSkip = protoscan.ErrSkip

// readModel reads the Model message.
func readModel(d *decoder, m *Model) error {
	return d.Fields("Model", func(d *decoder, num protowire.Number) (err error) {
		switch {
		case num == 1: // specificationVersion
			m.SpecificationVersion, err = d.Int32()
		case num == 2: // description
			m.Description = &ModelDescription{}
			err = d.Message(func(sub *decoder) error { return readModelDescription(sub, m.Description) })
		case num == 10: // isUpdatable
			m.IsUpdatable, err = d.Bool()
		case num >= 200 && d.Type() == protowire.BytesType: // Type oneof: record which, skip the body
			m.Type = ModelType(num)
			return errSkip
		default:
			return errSkip
		}
		return err
	})
}

// readModelDescription reads the ModelDescription message.
func readModelDescription(d *decoder, m *ModelDescription) error {
	return d.Fields("ModelDescription", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // input
			m.Inputs, err = appendFeature(d, m.Inputs)
		case 10: // output
			m.Outputs, err = appendFeature(d, m.Outputs)
		case 11: // predictedFeatureName
			m.PredictedFeatureName, err = d.Str()
		case 12: // predictedProbabilitiesName
			m.PredictedProbabilitiesName, err = d.Str()
		case 13: // state
			m.States, err = appendFeature(d, m.States)
		case 20: // functions
			var fn FunctionDescription
			err = d.Message(func(sub *decoder) error { return readFunctionDescription(sub, &fn) })
			m.Functions = append(m.Functions, fn)
		case 21: // defaultFunctionName
			m.DefaultFunctionName, err = d.Str()
		case 50: // trainingInput
			m.TrainingInputs, err = appendFeature(d, m.TrainingInputs)
		case 100: // metadata
			m.Metadata = &Metadata{}
			err = d.Message(func(sub *decoder) error { return readMetadata(sub, m.Metadata) })
		default:
			return errSkip
		}
		return err
	})
}

// readFunctionDescription reads the FunctionDescription message.
func readFunctionDescription(d *decoder, m *FunctionDescription) error {
	return d.Fields("FunctionDescription", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // name
			m.Name, err = d.Str()
		case 2: // input
			m.Inputs, err = appendFeature(d, m.Inputs)
		case 3: // output
			m.Outputs, err = appendFeature(d, m.Outputs)
		case 4: // predictedFeatureName
			m.PredictedFeatureName, err = d.Str()
		case 5: // predictedProbabilitiesName
			m.PredictedProbabilitiesName, err = d.Str()
		case 6: // state
			m.States, err = appendFeature(d, m.States)
		default:
			return errSkip
		}
		return err
	})
}

// readMetadata reads the Metadata message.
func readMetadata(d *decoder, m *Metadata) error {
	return d.Fields("Metadata", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // shortDescription
			m.ShortDescription, err = d.Str()
		case 2: // versionString
			m.VersionString, err = d.Str()
		case 3: // author
			m.Author, err = d.Str()
		case 4: // license
			m.License, err = d.Str()
		case 100: // userDefined (map<string, string>)
			var kv KeyValue
			err = d.Message(func(sub *decoder) error { return readMapEntry(sub, &kv) })
			m.UserDefined = append(m.UserDefined, kv)
		default:
			return errSkip
		}
		return err
	})
}

func readMapEntry(d *decoder, kv *KeyValue) error {
	return d.Fields("map entry", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1:
			kv.Key, err = d.Str()
		case 2:
			kv.Value, err = d.Str()
		default:
			return errSkip
		}
		return err
	})
}

func appendFeature(d *decoder, dst []FeatureDescription) ([]FeatureDescription, error) {
	var fd FeatureDescription
	if err := d.Message(func(sub *decoder) error { return readFeatureDescription(sub, &fd) }); err != nil {
		return dst, err
	}
	return append(dst, fd), nil
}

// readFeatureDescription reads the FeatureDescription message.
func readFeatureDescription(d *decoder, m *FeatureDescription) error {
	return d.Fields("FeatureDescription", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // name
			m.Name, err = d.Str()
		case 2: // shortDescription
			m.ShortDescription, err = d.Str()
		case 3: // type
			m.Type = &FeatureType{}
			err = d.Message(func(sub *decoder) error { return readFeatureType(sub, m.Type) })
		default:
			return errSkip
		}
		return err
	})
}

// readFeatureType reads the FeatureType message.
func readFeatureType(d *decoder, m *FeatureType) error {
	return d.Fields("FeatureType", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1, 2, 3: // int64Type, doubleType, stringType: empty messages
			m.Kind = FeatureKind(num)
			err = d.Empty()
		case 4: // imageType
			m.Kind = FeatureKindImage
			m.Image = &ImageFeatureType{}
			err = d.Message(func(sub *decoder) error { return readImageFeatureType(sub, m.Image) })
		case 5: // multiArrayType
			m.Kind = FeatureKindMultiArray
			m.MultiArray = &ArrayFeatureType{}
			err = d.Message(func(sub *decoder) error { return readArrayFeatureType(sub, m.MultiArray) })
		case 6: // dictionaryType
			m.Kind = FeatureKindDictionary
			m.Dictionary = &DictionaryFeatureType{}
			err = d.Message(func(sub *decoder) error { return readDictionaryFeatureType(sub, m.Dictionary) })
		case 7: // sequenceType
			m.Kind = FeatureKindSequence
			m.Sequence = &SequenceFeatureType{}
			err = d.Message(func(sub *decoder) error { return readSequenceFeatureType(sub, m.Sequence) })
		case 8: // stateType
			m.Kind = FeatureKindState
			m.State = &StateFeatureType{}
			err = d.Message(func(sub *decoder) error { return readStateFeatureType(sub, m.State) })
		case 1000: // isOptional
			m.IsOptional, err = d.Bool()
		default:
			return errSkip
		}
		return err
	})
}

// readArrayFeatureType reads the ArrayFeatureType message.
func readArrayFeatureType(d *decoder, m *ArrayFeatureType) error {
	return d.Fields("ArrayFeatureType", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // shape
			m.Shape, err = d.Int64s(m.Shape)
		case 2: // dataType
			var v int32
			v, err = d.Int32()
			m.DataType = ArrayDataType(v)
		case 21: // enumeratedShapes
			err = d.Message(func(sub *decoder) error { return readEnumeratedShapes(sub, m) })
		case 31: // shapeRange
			err = d.Message(func(sub *decoder) error { return readShapeRange(sub, m) })
		case 41: // intDefaultValue
			var v int32
			v, err = d.Int32()
			m.IntDefaultValue = &v
		case 51: // floatDefaultValue
			var bits uint32
			bits, err = d.Fixed32()
			v := math.Float32frombits(bits)
			m.FloatDefaultValue = &v
		case 61: // doubleDefaultValue
			var bits uint64
			bits, err = d.Fixed64()
			v := math.Float64frombits(bits)
			m.DoubleDefaultValue = &v
		default:
			return errSkip
		}
		return err
	})
}

func readEnumeratedShapes(d *decoder, m *ArrayFeatureType) error {
	return d.Fields("EnumeratedShapes", func(d *decoder, num protowire.Number) error {
		if num != 1 { // shapes
			return errSkip
		}
		var shape []int64
		err := d.Message(func(sub *decoder) error {
			return sub.Fields("Shape", func(s *decoder, num protowire.Number) (err error) {
				if num != 1 {
					return errSkip
				}
				shape, err = s.Int64s(shape)
				return err
			})
		})
		m.EnumeratedShapes = append(m.EnumeratedShapes, shape)
		return err
	})
}

func readShapeRange(d *decoder, m *ArrayFeatureType) error {
	return d.Fields("ShapeRange", func(d *decoder, num protowire.Number) error {
		if num != 1 { // sizeRanges
			return errSkip
		}
		var r SizeRange
		err := d.Message(func(sub *decoder) error { return readSizeRange(sub, &r) })
		m.ShapeRange = append(m.ShapeRange, r)
		return err
	})
}

// readSizeRange reads the SizeRange message.
func readSizeRange(d *decoder, m *SizeRange) error {
	return d.Fields("SizeRange", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // lowerBound
			m.LowerBound, err = d.Varint()
		case 2: // upperBound
			m.UpperBound, err = d.Int64()
		default:
			return errSkip
		}
		return err
	})
}

// readImageFeatureType reads the ImageFeatureType message.
func readImageFeatureType(d *decoder, m *ImageFeatureType) error {
	return d.Fields("ImageFeatureType", func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1: // width
			m.Width, err = d.Int64()
		case 2: // height
			m.Height, err = d.Int64()
		case 3: // colorSpace
			var v int32
			v, err = d.Int32()
			m.ColorSpace = ColorSpace(v)
		case 21: // enumeratedSizes
			err = d.Message(func(sub *decoder) error { return readEnumeratedImageSizes(sub, m) })
		case 31: // imageSizeRange
			m.SizeRange = &ImageSizeRange{}
			err = d.Message(func(sub *decoder) error { return readImageSizeRange(sub, m.SizeRange) })
		default:
			return errSkip
		}
		return err
	})
}

func readEnumeratedImageSizes(d *decoder, m *ImageFeatureType) error {
	return d.Fields("EnumeratedImageSizes", func(d *decoder, num protowire.Number) error {
		if num != 1 { // sizes
			return errSkip
		}
		var size ImageSize
		err := d.Message(func(sub *decoder) error {
			return sub.Fields("ImageSize", func(s *decoder, num protowire.Number) (err error) {
				switch num {
				case 1:
					size.Width, err = s.Varint()
				case 2:
					size.Height, err = s.Varint()
				default:
					return errSkip
				}
				return err
			})
		})
		m.EnumeratedSizes = append(m.EnumeratedSizes, size)
		return err
	})
}

func readImageSizeRange(d *decoder, m *ImageSizeRange) error {
	return d.Fields("ImageSizeRange", func(d *decoder, num protowire.Number) error {
		switch num {
		case 1: // widthRange
			return d.Message(func(sub *decoder) error { return readSizeRange(sub, &m.WidthRange) })
		case 2: // heightRange
			return d.Message(func(sub *decoder) error { return readSizeRange(sub, &m.HeightRange) })
		default:
			return errSkip
		}
	})
}

// readDictionaryFeatureType reads the DictionaryFeatureType message.
func readDictionaryFeatureType(d *decoder, m *DictionaryFeatureType) error {
	return d.Fields("DictionaryFeatureType", func(d *decoder, num protowire.Number) error {
		switch num {
		case 1: // int64KeyType
			m.KeyKind = FeatureKindInt64
		case 2: // stringKeyType
			m.KeyKind = FeatureKindString
		default:
			return errSkip
		}
		return d.Empty()
	})
}

// readSequenceFeatureType reads the SequenceFeatureType message.
func readSequenceFeatureType(d *decoder, m *SequenceFeatureType) error {
	return d.Fields("SequenceFeatureType", func(d *decoder, num protowire.Number) error {
		switch num {
		case 1: // int64Type
			m.ElementKind = FeatureKindInt64
			return d.Empty()
		case 3: // stringType
			m.ElementKind = FeatureKindString
			return d.Empty()
		case 101: // sizeRange
			m.SizeRange = &SizeRange{}
			return d.Message(func(sub *decoder) error { return readSizeRange(sub, m.SizeRange) })
		default:
			return errSkip
		}
	})
}

// readStateFeatureType reads the StateFeatureType message.
func readStateFeatureType(d *decoder, m *StateFeatureType) error {
	return d.Fields("StateFeatureType", func(d *decoder, num protowire.Number) error {
		if num != 1 { // arrayType
			return errSkip
		}
		m.Array = &ArrayFeatureType{}
		return d.Message(func(sub *decoder) error { return readArrayFeatureType(sub, m.Array) })
	})
}
