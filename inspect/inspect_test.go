package inspect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalvoice/mlinspect/inspect"
	"github.com/metalvoice/mlinspect/internal/coreml/coremltest"
)

func TestPublicInspect(t *testing.T) {
	path := coremltest.WritePackage(t, t.TempDir(), "dfn", coremltest.DeepFilterNet(), 32)

	format, err := inspect.DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, inspect.FormatCoreMLPackage, format)

	report, err := inspect.New(nil, inspect.Options{}).Inspect(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, report.Inputs, 3)
	assert.Len(t, report.Outputs, 2)

	assert.Len(t, inspect.Formats(), 6)
}

func TestPublicErrors(t *testing.T) {
	_, err := inspect.DetectFormat("does-not-exist.onnx")
	assert.ErrorIs(t, err, inspect.ErrNotFound)
}
