package inspect

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metalvoice/mlinspect/internal/coreml"
)

// Options configures an Inspector.
type Options struct {
	// Concurrency bounds parallel inspections in InspectAll; <= 0 means GOMAXPROCS.
	Concurrency int
	// Checksum adds a SHA-256 of the file or directory tree to each report.
	Checksum bool
}

// Inspector builds reports for model paths.
type Inspector struct {
	logger *zap.Logger
	opts   Options
}

// New creates an Inspector. A nil logger discards log output.
func New(logger *zap.Logger, opts Options) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Inspector{logger: logger, opts: opts}
}

// Inspect detects the format of path and builds its report.
func (i *Inspector) Inspect(ctx context.Context, path string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	log := i.logger.With(zap.String("path", path), zap.Stringer("format", format))
	log.Debug("detected format")

	var report *Report
	switch format {
	case FormatCoreMLPackage:
		report, err = i.inspectPackage(path)
	case FormatCoreMLCompiled:
		report, err = inspectCompiled(path)
	case FormatCoreMLSpec:
		report, err = inspectSpec(path)
	case FormatONNX:
		report, err = inspectONNX(path)
	case FormatGGUF:
		report, err = inspectGGUF(path)
	case FormatSafeTensors:
		report, err = inspectSafeTensors(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, &FormatError{Format: format, Path: path, Err: err}
	}
	report.Path = path
	report.Format = format

	if report.Size == 0 {
		if report.Size, err = coreml.DiskUsage(path); err != nil {
			return nil, fmt.Errorf("size of %s: %w", path, err)
		}
	}

	if i.opts.Checksum {
		sum, err := Checksum(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", path, err)
		}
		report.Checksum = sum
	}

	log.Debug("inspected model",
		zap.Int("inputs", len(report.Inputs)),
		zap.Int("outputs", len(report.Outputs)),
		zap.Int64("size", report.Size))
	return report, nil
}

// InspectAll inspects paths with bounded parallelism. Results keep the order
// of paths and carry per-path errors; one failure does not stop the others.
func (i *Inspector) InspectAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)
	for idx, path := range paths {
		results[idx].Path = path
		g.Go(func() error {
			report, err := i.Inspect(gctx, path)
			results[idx].Report = report
			results[idx].Err = err
			if err != nil {
				i.logger.Debug("inspect failed", zap.String("path", path), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait() // Workers never return errors; failures live in results.

	return results
}
