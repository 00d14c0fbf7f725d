// Command mlinspect prints the interface of ML model packages: the Core ML
// model description, the named inputs and the named outputs. ONNX, GGUF and
// SafeTensors files are summarised the same way.
//
// Configuration is read from an optional TOML file (--config) and from
// environment variables:
//   - MLINSPECT_FORMAT: text, json or yaml
//   - MLINSPECT_COLOR: auto, always or never
//   - MLINSPECT_CONCURRENCY: models inspected in parallel
//   - MLINSPECT_CHECKSUM: add a SHA-256 of each model
//   - MLINSPECT_LOG_LEVEL, MLINSPECT_LOG_FORMAT: diagnostics on stderr
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/metalvoice/mlinspect/internal/config"
	"github.com/metalvoice/mlinspect/internal/inspect"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates every model was inspected.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid arguments or configuration.
	ExitInvalidArgs = 2

	// ExitNotFound indicates a model path does not exist.
	ExitNotFound = 3

	// ExitUnsupportedFormat indicates a path is not a recognised model.
	ExitUnsupportedFormat = 4

	// ExitMalformed indicates a model was recognised but could not be decoded.
	ExitMalformed = 5
)

var version = "v0.1.0-dev"

// errUsage marks command-line mistakes.
var errUsage = errors.New("invalid arguments")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCodeFromError(err)
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, errUsage), errors.Is(err, config.ErrInvalid):
		return ExitInvalidArgs
	case errors.Is(err, inspect.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, inspect.ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	case errors.Is(err, inspect.ErrMalformed):
		return ExitMalformed
	default:
		return ExitGeneralError
	}
}
