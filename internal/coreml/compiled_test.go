package coreml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalvoice/mlinspect/internal/coreml/coremltest"
)

func TestOpenCompiled(t *testing.T) {
	spec := coremltest.DeepFilterNet()
	spec.Inputs = append(spec.Inputs, coremltest.Feature{Name: "gain", Kind: "double", Optional: true})
	path := coremltest.WriteCompiled(t, t.TempDir(), "DeepFilterNet3_Streaming", spec)

	require.True(t, IsCompiled(path))

	compiled, err := OpenCompiled(path)
	require.NoError(t, err)

	model := compiled.Model
	assert.Equal(t, int32(7), model.SpecificationVersion)
	assert.Equal(t, ModelTypeMLProgram, model.Type)

	desc := model.Description
	require.Len(t, desc.Inputs, 4)
	assert.Equal(t, "spec_buf", desc.Inputs[0].Name)
	assert.Equal(t, "MultiArray (Float16 1 × 1 × 10 × 481 × 2)", desc.Inputs[0].Type.String())
	assert.Equal(t, "Double?", desc.Inputs[3].Type.String())

	require.Len(t, desc.Outputs, 2)
	assert.Equal(t, "Local SNR estimate", desc.Outputs[1].ShortDescription)

	require.NotNil(t, desc.Metadata)
	assert.Equal(t, "metalvoice", desc.Metadata.Author)
	require.Len(t, desc.Metadata.UserDefined, 2)
	assert.Equal(t, "com.github.apple.coremltools.source", desc.Metadata.UserDefined[0].Key)

	assert.Equal(t, "DeepFilterNet3_Streaming", compiled.Info.GeneratedClassName)
	assert.Equal(t, "Float16", compiled.Info.StoragePrecision)
	assert.Equal(t, "3.0", compiled.Info.MetadataOutputVersion)
}

func TestParseCompiledMetadata(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		data := []byte(`{
			"specificationVersion": 4,
			"isUpdatable": "1",
			"modelType": {"name": "MLModelType_neuralNetworkClassifier"},
			"inputSchema": [
				{"name": "image", "type": "Image", "width": "299", "height": "299", "isColor": "1", "isOptional": "0"}
			],
			"outputSchema": [
				{"name": "classLabel", "type": "String", "isOptional": "0"},
				{"name": "probs", "type": "Dictionary", "keyType": "String", "isOptional": "0"}
			]
		}`)
		model, _, err := ParseCompiledMetadata(data)
		require.NoError(t, err)

		assert.Equal(t, ModelTypeNeuralNetworkClassifier, model.Type)
		assert.True(t, model.IsUpdatable)
		assert.Nil(t, model.Description.Metadata)
		assert.Equal(t, "Image (Color 299 × 299)", model.Description.Inputs[0].Type.String())
		assert.Equal(t, "Dictionary (String → Double)", model.Description.Outputs[1].Type.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := ParseCompiledMetadata([]byte(`[{`))
		assert.ErrorIs(t, err, ErrInvalidCompiledMetadata)
	})

	t.Run("not an object", func(t *testing.T) {
		_, _, err := ParseCompiledMetadata([]byte(`[42]`))
		assert.ErrorIs(t, err, ErrInvalidCompiledMetadata)
	})
}

func TestOpenCompiledMissingMetadata(t *testing.T) {
	_, err := OpenCompiled(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidCompiledMetadata)
}
