// Package config loads mlinspect settings.
//
// Priority: defaults, then the TOML file, then MLINSPECT_* environment
// variables. Command-line flags are applied on top by the caller, followed
// by Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by Load and Validate for bad settings.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full configuration.
type Config struct {
	Output  OutputConfig  `toml:"output"`
	Inspect InspectConfig `toml:"inspect"`
	Logging LoggingConfig `toml:"logging"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `toml:"format" validate:"oneof=text json yaml"`
	Color  string `toml:"color" validate:"oneof=auto always never"`
}

// InspectConfig controls the inspector.
type InspectConfig struct {
	Concurrency int  `toml:"concurrency" validate:"min=0,max=256"` // 0 means GOMAXPROCS
	Checksum    bool `toml:"checksum"`
}

// LoggingConfig controls diagnostics on stderr.
type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: config path is provided by user.
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalid, path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MLINSPECT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("MLINSPECT_COLOR"); v != "" {
		cfg.Output.Color = v
	}
	if v := os.Getenv("MLINSPECT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MLINSPECT_CONCURRENCY: %w", ErrInvalid, err)
		}
		cfg.Inspect.Concurrency = n
	}
	if v := os.Getenv("MLINSPECT_CHECKSUM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: MLINSPECT_CHECKSUM: %w", ErrInvalid, err)
		}
		cfg.Inspect.Checksum = b
	}
	if v := os.Getenv("MLINSPECT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MLINSPECT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %q", fe.Namespace(), fe.Value(), fe.ActualTag()+paramSuffix(fe.Param())))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
