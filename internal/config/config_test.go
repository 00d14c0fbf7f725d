package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mlinspect.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[output]
format = "yaml"

[inspect]
concurrency = 4
checksum = true

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Inspect.Concurrency)
	assert.True(t, cfg.Inspect.Checksum)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[output]\nformat = \"yaml\"\n")
	t.Setenv("MLINSPECT_FORMAT", "json")
	t.Setenv("MLINSPECT_COLOR", "never")
	t.Setenv("MLINSPECT_CONCURRENCY", "2")
	t.Setenv("MLINSPECT_CHECKSUM", "true")
	t.Setenv("MLINSPECT_LOG_LEVEL", "INFO")
	t.Setenv("MLINSPECT_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Output:  OutputConfig{Format: "json", Color: "never"},
		Inspect: InspectConfig{Concurrency: 2, Checksum: true},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}, cfg)
}

func TestInvalidEnv(t *testing.T) {
	t.Setenv("MLINSPECT_CONCURRENCY", "many")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"format", "[output]\nformat = \"xml\"\n", "Config.Output.Format"},
		{"color", "[output]\ncolor = \"sometimes\"\n", "Config.Output.Color"},
		{"concurrency", "[inspect]\nconcurrency = -1\n", "Config.Inspect.Concurrency"},
		{"level", "[logging]\nlevel = \"trace\"\n", "Config.Logging.Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[output\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, ErrInvalid)
}
