// Package inspect reads ML model containers and describes their interface.
//
// This package exports the model inspector used by the mlinspect command so
// that other tools can embed it.
//
// Example usage:
//
//	import "github.com/metalvoice/mlinspect/inspect"
//
//	in := inspect.New(nil, inspect.Options{})
//	report, err := in.Inspect(ctx, "DeepFilterNet3_Streaming.mlpackage")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, f := range report.Inputs {
//	    fmt.Printf("%s: %s\n", f.Name, f.Type)
//	}
package inspect

import (
	"go.uber.org/zap"

	"github.com/metalvoice/mlinspect/internal/inspect"
)

// Format is a model container format.
type Format = inspect.Format

// Supported formats.
const (
	FormatUnknown        Format = inspect.FormatUnknown
	FormatCoreMLPackage  Format = inspect.FormatCoreMLPackage
	FormatCoreMLCompiled Format = inspect.FormatCoreMLCompiled
	FormatCoreMLSpec     Format = inspect.FormatCoreMLSpec
	FormatONNX           Format = inspect.FormatONNX
	FormatGGUF           Format = inspect.FormatGGUF
	FormatSafeTensors    Format = inspect.FormatSafeTensors
)

// Report describes one inspected model: its Core ML spec text (empty for
// other formats), metadata, inputs, outputs, states and format details.
type Report = inspect.Report

// Feature is a named model input, output or state.
type Feature = inspect.Feature

// KeyValue is an ordered metadata entry.
type KeyValue = inspect.KeyValue

// Result pairs a path with its report or error, as returned by InspectAll.
type Result = inspect.Result

// Options configures an Inspector.
type Options = inspect.Options

// Inspector builds reports for model paths.
//
// Note: This is a type alias so that reports flow between the command and
// embedding tools without conversion.
type Inspector = inspect.Inspector

// FormatError reports a model that was recognised but could not be decoded.
type FormatError = inspect.FormatError

// Errors reported by Inspect. Match them with errors.Is.
var (
	ErrNotFound          = inspect.ErrNotFound
	ErrUnsupportedFormat = inspect.ErrUnsupportedFormat
	ErrMalformed         = inspect.ErrMalformed
)

// New creates an Inspector. A nil logger discards log output.
//
// Example:
//
//	logger, _ := zap.NewDevelopment()
//	in := inspect.New(logger, inspect.Options{Concurrency: 4, Checksum: true})
//	for _, r := range in.InspectAll(ctx, paths) {
//	    if r.Err != nil {
//	        fmt.Printf("Error: %v\n", r.Err)
//	        continue
//	    }
//	    fmt.Println(r.Report.Format, r.Report.Size)
//	}
func New(logger *zap.Logger, opts Options) *Inspector {
	return inspect.New(logger, opts)
}

// DetectFormat identifies the format of the model at path.
//
// Directories are recognised as Core ML packages (Manifest.json) or compiled
// models (coremldata.bin / metadata.json). Files are recognised by extension,
// falling back to the GGUF magic number for whisper.cpp style ".bin" files.
func DetectFormat(path string) (Format, error) {
	return inspect.DetectFormat(path)
}

// Formats lists the supported formats in display order.
func Formats() []Format {
	return inspect.Formats()
}
