package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalvoice/mlinspect/internal/config"
	"github.com/metalvoice/mlinspect/internal/coreml/coremltest"
	"github.com/metalvoice/mlinspect/internal/inspect"
)

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestInspectPackage(t *testing.T) {
	path := coremltest.WritePackage(t, t.TempDir(), "DeepFilterNet3_Streaming", coremltest.DeepFilterNet(), 64)

	code, out, stderr := execute(t, "--color=never", path)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.True(t, strings.HasPrefix(out, "--- MODEL SPEC ---\ninput {\n  name: \"spec_buf\"\n"))
	assert.Contains(t, out, "--- INPUTS ---\nName: spec_buf\nType: MultiArray (Float16 1 × 1 × 10 × 481 × 2)\n")
	assert.Contains(t, out, "--- OUTPUTS ---\nName: enhanced_spec\n")
	assert.Contains(t, out, "Name: lsnr\nType: MultiArray (Float16 1 × 1 × 1)\nLocal SNR estimate\n")
	assert.NotContains(t, out, "--- STATES ---")
	assert.Contains(t, out, "--- PACKAGE ---\nFormat: mlpackage")
	assert.NotContains(t, out, "Error:")
	assert.Empty(t, stderr)
}

func TestMissingPath(t *testing.T) {
	code, out, _ := execute(t, filepath.Join(t.TempDir(), "missing.mlpackage"))
	assert.Equal(t, ExitNotFound, code)
	assert.True(t, strings.HasPrefix(out, "Error: inspect: no such file or directory"), out)
}

func TestUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o600))

	code, out, _ := execute(t, path)
	assert.Equal(t, ExitUnsupportedFormat, code)
	assert.Contains(t, out, "Error: inspect: unsupported model format")
}

func TestMalformedSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mlmodel")
	require.NoError(t, os.WriteFile(path, []byte{0x12, 0x7f}, 0o600))

	code, out, _ := execute(t, path)
	assert.Equal(t, ExitMalformed, code)
	assert.Contains(t, out, "Error: mlmodel "+path)
}

func TestMultiplePaths(t *testing.T) {
	dir := t.TempDir()
	good := coremltest.WriteSpec(t, dir, "dfn", coremltest.DeepFilterNet())
	missing := filepath.Join(dir, "missing.mlmodel")

	code, out, _ := execute(t, "--concurrency", "2", good, missing)
	assert.Equal(t, ExitNotFound, code)
	assert.Contains(t, out, "=== "+good+" ===\n--- MODEL SPEC ---\n")
	assert.Contains(t, out, "=== "+missing+" ===\nError: ")
	assert.Less(t, strings.Index(out, good), strings.Index(out, missing))
}

func TestJSONOutput(t *testing.T) {
	path := coremltest.WriteCompiled(t, t.TempDir(), "dfn", coremltest.DeepFilterNet())

	code, out, _ := execute(t, "--format", "json", "--checksum", path)
	require.Equal(t, ExitSuccess, code)

	var doc struct {
		Format string `json:"format"`
		Inputs []struct {
			Name string `json:"name"`
		} `json:"inputs"`
		SHA256 string `json:"sha256"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "mlmodelc", doc.Format)
	assert.Len(t, doc.Inputs, 3)
	assert.Len(t, doc.SHA256, 64)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mlinspect.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[output]\nformat = \"yaml\"\n"), 0o600))
	path := coremltest.WriteSpec(t, dir, "dfn", coremltest.DeepFilterNet())

	code, out, _ := execute(t, "--config", cfgPath, path)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "format: mlmodel\n")

	code, out, _ = execute(t, "--config", cfgPath, "--format", "text", path)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "--- INPUTS ---\n")
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no paths", nil},
		{"bad format", []string{"--format", "xml", "m.onnx"}},
		{"bad color", []string{"--color", "pink", "m.onnx"}},
		{"unknown flag", []string{"--frobnicate", "m.onnx"}},
		{"bad concurrency", []string{"--concurrency", "x", "m.onnx"}},
		{"missing config", []string{"--config", "does-not-exist.toml", "m.onnx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := execute(t, tt.args...)
			assert.Equal(t, ExitInvalidArgs, code)
			assert.Empty(t, out)
			assert.True(t, strings.HasPrefix(stderr, "Error: "), stderr)
		})
	}
}

func TestFormatsCommand(t *testing.T) {
	code, out, _ := execute(t, "formats")
	require.Equal(t, ExitSuccess, code)
	for _, f := range inspect.Formats() {
		assert.Contains(t, out, f.String())
	}
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := execute(t, "version")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "mlinspect "+version+"\n", out)
}

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{fmt.Errorf("%w: x", errUsage), ExitInvalidArgs},
		{fmt.Errorf("load: %w", config.ErrInvalid), ExitInvalidArgs},
		{fmt.Errorf("%w: x", inspect.ErrNotFound), ExitNotFound},
		{fmt.Errorf("%w: x", inspect.ErrUnsupportedFormat), ExitUnsupportedFormat},
		{&inspect.FormatError{Format: inspect.FormatONNX, Err: errors.New("bad")}, ExitMalformed},
		{&reportedError{err: &inspect.FormatError{Err: errors.New("bad")}}, ExitMalformed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCodeFromError(tt.err), "%v", tt.err)
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor("always", &buf))
	assert.False(t, useColor("never", &buf))
	assert.False(t, useColor("auto", &buf))
}
