package safetensors

import "strings"

// Architecture names recognised from tensor names.
const (
	ArchitectureLLaMA    = "llama"
	ArchitectureMistral  = "mistral"
	ArchitectureDeepSeek = "deepseek"
	ArchitectureWhisper  = "whisper"
)

// DetectArchitecture guesses the model family from tensor names, or returns "".
func DetectArchitecture(names []string) string {
	has := func(substr string) bool {
		for _, name := range names {
			if strings.Contains(name, substr) {
				return true
			}
		}
		return false
	}

	switch {
	case has("kv_a_proj") || has("kv_b_proj"):
		return ArchitectureDeepSeek
	case has("block_sparse_moe"):
		return ArchitectureMistral
	case has("encoder.conv1") && has("decoder.embed_positions"):
		return ArchitectureWhisper
	case has("self_attn.q_proj") && has("mlp.gate_proj"):
		return ArchitectureLLaMA
	default:
		return ""
	}
}

// TensorNames returns the tensor names in header order.
func (h *Header) TensorNames() []string {
	names := make([]string, len(h.Tensors))
	for i := range h.Tensors {
		names[i] = h.Tensors[i].Name
	}
	return names
}
