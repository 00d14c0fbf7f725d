package coreml

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// TextFormat renders the description in protobuf text format, the way
// the protobuf runtime prints a ModelDescription: fields in field-number
// order, zero values omitted, map entries sorted by key.
func (d *ModelDescription) TextFormat() string {
	w := &textWriter{}
	if d != nil {
		w.modelDescription(d)
	}
	return w.b.String()
}

type textWriter struct {
	b      strings.Builder
	indent int
}

func (w *textWriter) line(s string) {
	for i := 0; i < w.indent; i++ {
		w.b.WriteString("  ")
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *textWriter) open(name string) {
	w.line(name + " {")
	w.indent++
}

func (w *textWriter) close() {
	w.indent--
	w.line("}")
}

func (w *textWriter) empty(name string) {
	w.open(name)
	w.close()
}

func (w *textWriter) str(name, v string) {
	if v != "" {
		w.line(name + ": " + quoteText(v))
	}
}

func (w *textWriter) int(name string, v int64) {
	if v != 0 {
		w.line(name + ": " + strconv.FormatInt(v, 10))
	}
}

func (w *textWriter) uint(name string, v uint64) {
	if v != 0 {
		w.line(name + ": " + strconv.FormatUint(v, 10))
	}
}

func (w *textWriter) modelDescription(d *ModelDescription) {
	w.features("input", d.Inputs)
	w.features("output", d.Outputs)
	w.str("predictedFeatureName", d.PredictedFeatureName)
	w.str("predictedProbabilitiesName", d.PredictedProbabilitiesName)
	w.features("state", d.States)
	for i := range d.Functions {
		fn := &d.Functions[i]
		w.open("functions")
		w.str("name", fn.Name)
		w.features("input", fn.Inputs)
		w.features("output", fn.Outputs)
		w.str("predictedFeatureName", fn.PredictedFeatureName)
		w.str("predictedProbabilitiesName", fn.PredictedProbabilitiesName)
		w.features("state", fn.States)
		w.close()
	}
	w.str("defaultFunctionName", d.DefaultFunctionName)
	w.features("trainingInput", d.TrainingInputs)
	if d.Metadata != nil {
		w.metadata(d.Metadata)
	}
}

func (w *textWriter) metadata(m *Metadata) {
	w.open("metadata")
	w.str("shortDescription", m.ShortDescription)
	w.str("versionString", m.VersionString)
	w.str("author", m.Author)
	w.str("license", m.License)
	for _, kv := range SortedKeyValues(m.UserDefined) {
		w.open("userDefined")
		w.line("key: " + quoteText(kv.Key))
		w.line("value: " + quoteText(kv.Value))
		w.close()
	}
	w.close()
}

func (w *textWriter) features(name string, fds []FeatureDescription) {
	for i := range fds {
		fd := &fds[i]
		w.open(name)
		w.str("name", fd.Name)
		w.str("shortDescription", fd.ShortDescription)
		if fd.Type != nil {
			w.open("type")
			w.featureType(fd.Type)
			w.close()
		}
		w.close()
	}
}

func (w *textWriter) featureType(t *FeatureType) {
	switch t.Kind {
	case FeatureKindInt64:
		w.empty("int64Type")
	case FeatureKindDouble:
		w.empty("doubleType")
	case FeatureKindString:
		w.empty("stringType")
	case FeatureKindImage:
		w.open("imageType")
		if t.Image != nil {
			w.imageType(t.Image)
		}
		w.close()
	case FeatureKindMultiArray:
		w.open("multiArrayType")
		if t.MultiArray != nil {
			w.arrayType(t.MultiArray)
		}
		w.close()
	case FeatureKindDictionary:
		w.open("dictionaryType")
		if t.Dictionary != nil {
			switch t.Dictionary.KeyKind {
			case FeatureKindInt64:
				w.empty("int64KeyType")
			case FeatureKindString:
				w.empty("stringKeyType")
			}
		}
		w.close()
	case FeatureKindSequence:
		w.open("sequenceType")
		if s := t.Sequence; s != nil {
			switch s.ElementKind {
			case FeatureKindInt64:
				w.empty("int64Type")
			case FeatureKindString:
				w.empty("stringType")
			}
			if s.SizeRange != nil {
				w.sizeRange("sizeRange", *s.SizeRange)
			}
		}
		w.close()
	case FeatureKindState:
		w.open("stateType")
		if t.State != nil && t.State.Array != nil {
			w.open("arrayType")
			w.arrayType(t.State.Array)
			w.close()
		}
		w.close()
	}
	if t.IsOptional {
		w.line("isOptional: true")
	}
}

func (w *textWriter) arrayType(a *ArrayFeatureType) {
	for _, d := range a.Shape {
		w.line("shape: " + strconv.FormatInt(d, 10))
	}
	if a.DataType != ArrayDataTypeInvalid {
		w.line("dataType: " + a.DataType.ProtoName())
	}
	if len(a.EnumeratedShapes) > 0 {
		w.open("enumeratedShapes")
		for _, shape := range a.EnumeratedShapes {
			w.open("shapes")
			for _, d := range shape {
				w.line("shape: " + strconv.FormatInt(d, 10))
			}
			w.close()
		}
		w.close()
	}
	if len(a.ShapeRange) > 0 {
		w.open("shapeRange")
		for _, r := range a.ShapeRange {
			w.sizeRange("sizeRanges", r)
		}
		w.close()
	}
	switch {
	case a.IntDefaultValue != nil:
		w.line("intDefaultValue: " + strconv.FormatInt(int64(*a.IntDefaultValue), 10))
	case a.FloatDefaultValue != nil:
		w.line("floatDefaultValue: " + formatTextFloat(float64(*a.FloatDefaultValue), 32))
	case a.DoubleDefaultValue != nil:
		w.line("doubleDefaultValue: " + formatTextFloat(*a.DoubleDefaultValue, 64))
	}
}

func (w *textWriter) imageType(img *ImageFeatureType) {
	w.int("width", img.Width)
	w.int("height", img.Height)
	if img.ColorSpace != ColorSpaceInvalid {
		w.line("colorSpace: " + img.ColorSpace.ProtoName())
	}
	if len(img.EnumeratedSizes) > 0 {
		w.open("enumeratedSizes")
		for _, s := range img.EnumeratedSizes {
			w.open("sizes")
			w.uint("width", s.Width)
			w.uint("height", s.Height)
			w.close()
		}
		w.close()
	}
	if r := img.SizeRange; r != nil {
		w.open("imageSizeRange")
		w.sizeRange("widthRange", r.WidthRange)
		w.sizeRange("heightRange", r.HeightRange)
		w.close()
	}
}

func (w *textWriter) sizeRange(name string, r SizeRange) {
	w.open(name)
	w.uint("lowerBound", r.LowerBound)
	w.int("upperBound", r.UpperBound)
	w.close()
}

// SortedKeyValues returns a copy of kvs sorted by key.
func SortedKeyValues(kvs []KeyValue) []KeyValue {
	sorted := make([]KeyValue, len(kvs))
	copy(sorted, kvs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

// quoteText quotes s as a text-format string: printable ASCII is kept,
// C escapes for quotes, backslash and control characters, octal for other bytes.
func quoteText(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if c < 0x20 || c >= 0x7f {
				b.WriteByte('\\')
				b.WriteByte('0' + c>>6)
				b.WriteByte('0' + (c>>3)&7)
				b.WriteByte('0' + c&7)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatTextFloat prints the shortest representation that round-trips,
// always with a decimal point or exponent. Magnitudes in [1e-4, 1e16) use
// fixed notation.
func formatTextFloat(v float64, bitSize int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	format := byte('g')
	if a := math.Abs(v); a == 0 || (a >= 1e-4 && a < 1e16) {
		format = 'f'
	}
	s := strconv.FormatFloat(v, format, -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
