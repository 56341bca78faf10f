package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/dagrad/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and sizes but not offsets.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateTensorOffsets checks that every region lies inside the data
// section and that no two regions share a byte.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if n := len(tensors); n > MaxTensorCount {
		return &ValidationError{Kind: ErrTooManyTensors, Details: fmt.Sprintf("%d tensors, limit %d", n, MaxTensorCount)}
	}
	byOffset := slices.SortedFunc(slices.Values(tensors), func(x, y TensorMeta) int {
		return cmp.Compare(x.Offset, y.Offset)
	})
	var prev *TensorMeta
	for i := range byOffset {
		t := &byOffset[i]
		end := t.Offset + t.Size
		switch {
		case t.Offset < 0 || t.Size < 0:
			return &ValidationError{Kind: ErrNegativeOffset, Tensor: t.Name,
				Details: fmt.Sprintf("offset %d, size %d", t.Offset, t.Size)}
		case end > dataSize:
			return &ValidationError{Kind: ErrOutOfBounds, Tensor: t.Name,
				Details: fmt.Sprintf("ends at %d, data section is %d bytes", end, dataSize)}
		case prev != nil && prev.Offset+prev.Size > t.Offset:
			return &ValidationError{Kind: ErrOffsetOverlap, Tensor: prev.Name, Tensor2: t.Name,
				Details: fmt.Sprintf("[%d, %d) and [%d, %d)", prev.Offset, prev.Offset+prev.Size, t.Offset, end)}
		}
		prev = t
	}
	return nil
}

// ValidateTensorName rejects empty names, path-like names and control bytes.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Kind: ErrInvalidTensorName, Tensor: name, Details: details}
	}
	switch {
	case name == "":
		return invalid("empty name")
	case len(name) > MaxTensorNameLen:
		return invalid(fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen))
	case strings.Contains(name, ".."):
		return invalid("contains '..'")
	case strings.ContainsAny(name, "/\\"):
		return invalid("contains a path separator")
	case strings.Contains(name, "\x00"):
		return invalid("contains a null byte")
	case name == safeTensorsMetadataKey:
		return invalid("reserved name")
	}
	return nil
}

// validateTensorSize checks that meta.Size holds exactly the elements of meta.Shape.
func validateTensorSize(meta TensorMeta, elementSize int) error {
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return &ValidationError{Kind: ErrSizeMismatch, Tensor: meta.Name, Details: err.Error()}
	}
	if want := int64(shape.NumElements() * elementSize); meta.Size != want {
		return &ValidationError{
			Kind:    ErrSizeMismatch,
			Tensor:  meta.Name,
			Details: fmt.Sprintf("shape %s needs %d bytes, header says %d", shape, want, meta.Size),
		}
	}
	return nil
}

// ValidateHeader validates a checkpoint header against the size of its data section.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Kind:    ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Kind: ErrInvalidTensorName, Tensor: t.Name, Details: "duplicate name"}
		}
		seen[t.Name] = true
		if t.DType != DTypeFloat64 {
			return &ValidationError{Kind: ErrUnsupportedDType, Tensor: t.Name, Details: t.DType}
		}
		if err := validateTensorSize(t, 8); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
