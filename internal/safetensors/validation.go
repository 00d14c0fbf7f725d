package safetensors

import (
	"fmt"
	"sort"
)

// MaxTensorCount bounds the number of tensors in one header.
const MaxTensorCount = 100_000

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap makes every ValidationError match ErrInvalidHeader.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidHeader
}

// ValidateOffsets checks that tensor regions lie inside the data section,
// do not overlap and match dtype × shape.
func ValidateOffsets(tensors []TensorInfo, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorInfo, len(tensors))
	copy(sorted, tensors)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].DataOffsets, sorted[j].DataOffsets
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	// prev is the last non-empty region; empty regions overlap nothing.
	var prev *TensorInfo
	for i := range sorted {
		t := &sorted[i]
		start, end := t.DataOffsets[0], t.DataOffsets[1]
		if start < 0 || end < start {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("data_offsets [%d, %d]", start, end),
			}
		}
		if end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("end %d > data_size %d", end, dataSize),
			}
		}
		if size := t.DType.Size(); size > 0 && t.NumElements()*size != end-start {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("%s %v needs %d bytes, offsets span %d", t.DType, t.Shape, t.NumElements()*size, end-start),
			}
		}
		if start == end {
			continue
		}
		if prev != nil && prev.DataOffsets[1] > start {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: t.Name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					prev.DataOffsets[0], prev.DataOffsets[1], start, end),
			}
		}
		prev = t
	}
	return nil
}
