package onnx

import (
	"fmt"
	"math"
	"strings"
)

type TensorDType string

const (
	DTypeFloat32 TensorDType = "float32"
	DTypeInt64   TensorDType = "int64"
)

// Tensor is a dense row-major tensor holding either float32 or int64 data.
type Tensor struct {
	dtype TensorDType
	shape []int64
	f32   []float32
	i64   []int64
}

// NewTensor copies data into a tensor of the given shape.
func NewTensor[T int64 | float32](data []T, shape []int64) (*Tensor, error) {
	if err := validateShapeAgainstData(shape, len(data)); err != nil {
		return nil, err
	}

	t := &Tensor{shape: append([]int64(nil), shape...)}
	switch d := any(data).(type) {
	case []float32:
		t.dtype = DTypeFloat32
		t.f32 = append([]float32(nil), d...)
	case []int64:
		t.dtype = DTypeInt64
		t.i64 = append([]int64(nil), d...)
	default:
		return nil, fmt.Errorf("unsupported tensor data type %T", data)
	}
	return t, nil
}

// NewZeroTensor builds a zero-filled tensor from a dtype name ("float",
// "tensor(int64)", ...) and a shape whose symbolic dimensions resolve to 1.
func NewZeroTensor(dtype string, shape []any) (*Tensor, error) {
	canonical, err := canonicalDType(dtype)
	if err != nil {
		return nil, err
	}
	resolvedShape, err := resolveShape(shape)
	if err != nil {
		return nil, err
	}
	count, err := elementCount(resolvedShape)
	if err != nil {
		return nil, err
	}

	if canonical == DTypeInt64 {
		return NewTensor(make([]int64, count), resolvedShape)
	}
	return NewTensor(make([]float32, count), resolvedShape)
}

func (t *Tensor) DType() TensorDType {
	return t.dtype
}

func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	if t.dtype == DTypeInt64 {
		return len(t.i64)
	}
	return len(t.f32)
}

func (t *Tensor) float32s() []float32 { return t.f32 }
func (t *Tensor) int64s() []int64     { return t.i64 }

// ExtractFloat32 returns a copy of a float32 tensor's data.
func ExtractFloat32(t *Tensor) ([]float32, error) {
	if t == nil {
		return nil, fmt.Errorf("expected float32 tensor, got nil")
	}
	if t.dtype != DTypeFloat32 {
		return nil, fmt.Errorf("expected float32 tensor, got %s", t.dtype)
	}
	return append([]float32(nil), t.f32...), nil
}

// ExtractInt64 returns a copy of an int64 tensor's data.
func ExtractInt64(t *Tensor) ([]int64, error) {
	if t == nil {
		return nil, fmt.Errorf("expected int64 tensor, got nil")
	}
	if t.dtype != DTypeInt64 {
		return nil, fmt.Errorf("expected int64 tensor, got %s", t.dtype)
	}
	return append([]int64(nil), t.i64...), nil
}

// ExpectShape checks that t has rank len(dims). A dims entry below zero
// matches any size. It returns the actual shape.
func ExpectShape(t *Tensor, dims ...int64) ([]int64, error) {
	shape := t.Shape()
	if len(shape) != len(dims) {
		return nil, fmt.Errorf("tensor rank %d (shape %v), want %d", len(shape), shape, len(dims))
	}
	for i, want := range dims {
		if want >= 0 && shape[i] != want {
			return nil, fmt.Errorf("tensor shape %v: dim %d is %d, want %d", shape, i, shape[i], want)
		}
	}
	return shape, nil
}

func canonicalDType(raw string) (TensorDType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "tensor(")
	normalized = strings.TrimSuffix(normalized, ")")
	switch normalized {
	case "float", "float32":
		return DTypeFloat32, nil
	case "int64", "long":
		return DTypeInt64, nil
	default:
		return "", fmt.Errorf("unsupported tensor dtype %q", raw)
	}
}

func resolveShape(shape []any) ([]int64, error) {
	out := make([]int64, len(shape))
	for i, dim := range shape {
		switch v := dim.(type) {
		case float64:
			if v < 1 || v != math.Trunc(v) {
				return nil, fmt.Errorf("shape[%d]=%v is not a positive integer", i, v)
			}
			out[i] = int64(v)
		case int:
			if v < 1 {
				return nil, fmt.Errorf("shape[%d]=%d is not positive", i, v)
			}
			out[i] = int64(v)
		case int64:
			if v < 1 {
				return nil, fmt.Errorf("shape[%d]=%d is not positive", i, v)
			}
			out[i] = v
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("shape[%d] has empty symbolic dimension", i)
			}
			out[i] = 1
		default:
			return nil, fmt.Errorf("shape[%d] has unsupported type %T", i, dim)
		}
	}
	return out, nil
}

func validateShapeAgainstData(shape []int64, dataLen int) error {
	count, err := elementCount(shape)
	if err != nil {
		return err
	}
	if count != dataLen {
		return fmt.Errorf("shape %v expects %d elements, got %d", shape, count, dataLen)
	}
	return nil
}

func elementCount(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}
	count := int64(1)
	for i, dim := range shape {
		if dim < 1 {
			return 0, fmt.Errorf("shape[%d]=%d is not positive", i, dim)
		}
		if count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}
		count *= dim
	}
	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}
	return int(count), nil
}
