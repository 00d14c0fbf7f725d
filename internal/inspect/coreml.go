package inspect

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/metalvoice/mlinspect/internal/coreml"
)

func (i *Inspector) inspectPackage(path string) (*Report, error) {
	pkg, err := coreml.OpenPackage(path)
	if err != nil {
		return nil, err
	}

	report := coreMLReport(pkg.Model)
	report.addDetail("package format", pkg.Manifest.FileFormatVersion)
	for _, item := range pkg.Items {
		value := humanize.IBytes(uint64(item.Size)) //nolint:gosec // G115: sizes are non-negative.
		if item.Missing {
			i.logger.Warn("package item missing", zap.String("path", path), zap.String("item", item.Path))
			value = "missing"
		}
		if item.Description != "" {
			value += " (" + item.Description + ")"
		}
		report.addDetail(item.Path, value)
	}
	report.Size = pkg.Size()
	return report, nil
}

func inspectCompiled(path string) (*Report, error) {
	compiled, err := coreml.OpenCompiled(path)
	if err != nil {
		return nil, err
	}
	report := coreMLReport(compiled.Model)
	report.addDetail("generated class", compiled.Info.GeneratedClassName)
	report.addDetail("storage precision", compiled.Info.StoragePrecision)
	report.addDetail("metadata version", compiled.Info.MetadataOutputVersion)
	return report, nil
}

func inspectSpec(path string) (*Report, error) {
	model, err := coreml.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return coreMLReport(model), nil
}

// coreMLReport fills the parts shared by all Core ML shapes.
func coreMLReport(model *coreml.Model) *Report {
	desc := model.Description
	report := &Report{
		Spec:    desc.TextFormat(),
		Inputs:  coreMLFeatures(desc.Inputs),
		Outputs: coreMLFeatures(desc.Outputs),
		States:  coreMLFeatures(desc.States),
	}

	if meta := desc.Metadata; meta != nil {
		for _, kv := range []KeyValue{
			{"shortDescription", meta.ShortDescription},
			{"versionString", meta.VersionString},
			{"author", meta.Author},
			{"license", meta.License},
		} {
			if kv.Value != "" {
				report.Metadata = append(report.Metadata, kv)
			}
		}
		for _, kv := range coreml.SortedKeyValues(meta.UserDefined) {
			report.Metadata = append(report.Metadata, KeyValue{Key: kv.Key, Value: kv.Value})
		}
	}

	if model.SpecificationVersion != 0 {
		report.addDetail("specification version", strconv.Itoa(int(model.SpecificationVersion)))
	}
	if model.Type != coreml.ModelTypeUnknown {
		report.addDetail("model type", model.Type.String())
	}
	if model.IsUpdatable {
		report.addDetail("updatable", "true")
	}
	report.addDetail("predicted feature", desc.PredictedFeatureName)
	report.addDetail("predicted probabilities", desc.PredictedProbabilitiesName)
	for _, fn := range desc.Functions {
		report.addDetail("function", fn.Name)
	}
	report.addDetail("default function", desc.DefaultFunctionName)
	return report
}

func coreMLFeatures(fds []coreml.FeatureDescription) []Feature {
	features := make([]Feature, 0, len(fds))
	for _, fd := range fds {
		f := Feature{
			Name:        fd.Name,
			Description: fd.ShortDescription,
			Type:        fd.Type.String(),
			Summary:     fd.Type.Summary(),
		}
		if t := fd.Type; t != nil {
			f.Optional = t.IsOptional
			arr := t.MultiArray
			if t.State != nil {
				arr = t.State.Array
			}
			if arr != nil {
				f.DataType = arr.DataType.String()
				f.Shape = arr.Shape
			}
			if t.Image != nil {
				f.Shape = []int64{t.Image.Height, t.Image.Width}
			}
		}
		features = append(features, f)
	}
	return features
}
