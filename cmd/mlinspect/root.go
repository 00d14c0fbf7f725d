package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metalvoice/mlinspect/internal/config"
	"github.com/metalvoice/mlinspect/internal/inspect"
	"github.com/metalvoice/mlinspect/internal/logging"
	"github.com/metalvoice/mlinspect/internal/render"
)

// errReported wraps a model error that the renderer already printed.
var errReported = errors.New("reported")

type reportedError struct{ err error }

func (e *reportedError) Error() string   { return e.err.Error() }
func (e *reportedError) Unwrap() []error { return []error{errReported, e.err} }

// app holds state shared by the root command and its hooks.
type app struct {
	stdout, stderr io.Writer

	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "mlinspect [flags] <model>...",
		Short: "Print the interface of ML model packages",
		Long: `mlinspect loads model packages and prints their description, inputs and outputs.

Supported: Core ML packages (.mlpackage), compiled models (.mlmodelc),
model specs (.mlmodel), ONNX, GGUF and SafeTensors.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: at least one model path is required", errUsage)
			}
			return nil
		},
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE:          a.inspect,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	defaults := config.Default()
	f := cmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "TOML configuration file")
	f.String("format", defaults.Output.Format, "output format: text, json or yaml")
	f.String("color", defaults.Output.Color, "bold headings: auto, always or never")
	f.Bool("checksum", false, "add a SHA-256 of each model")
	f.Int("concurrency", 0, "models inspected in parallel (0 = number of CPUs)")
	f.String("log-level", defaults.Logging.Level, "log level: debug, info, warn or error")
	f.String("log-format", defaults.Logging.Format, "log format: console or json")

	cmd.AddCommand(newFormatsCommand(), newVersionCommand())
	return cmd
}

// setup loads configuration, applies flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("color") {
		cfg.Output.Color, _ = f.GetString("color")
	}
	if f.Changed("checksum") {
		cfg.Inspect.Checksum, _ = f.GetBool("checksum")
	}
	if f.Changed("concurrency") {
		cfg.Inspect.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("log-level") {
		cfg.Logging.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Logging.Format, _ = f.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) inspect(cmd *cobra.Command, paths []string) error {
	r, err := render.New(a.stdout, render.Options{
		Format: a.cfg.Output.Format,
		Color:  useColor(a.cfg.Output.Color, a.stdout),
	})
	if err != nil {
		return err
	}

	in := inspect.New(a.logger, inspect.Options{
		Concurrency: a.cfg.Inspect.Concurrency,
		Checksum:    a.cfg.Inspect.Checksum,
	})
	results := in.InspectAll(cmd.Context(), paths)
	if err := r.Render(results); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	for _, res := range results {
		if res.Err != nil {
			return &reportedError{err: res.Err}
		}
	}
	return nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported model formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, f := range inspect.Formats() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", f, f.Description())
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mlinspect %s\n", version)
		},
	}
}
