package model

import "fmt"

// RawTensor is one graph output copied out of the runtime.
type RawTensor struct {
	Shape []int64
	// Exactly one of Float32 or Int64 is set.
	Float32 []float32
	Int64   []int64
}

// Len returns the number of elements.
func (t RawTensor) Len() int {
	if t.Int64 != nil {
		return len(t.Int64)
	}
	return len(t.Float32)
}

// Float returns element i as float32 regardless of storage type.
func (t RawTensor) Float(i int) float32 {
	if t.Int64 != nil {
		return float32(t.Int64[i])
	}
	return t.Float32[i]
}

// Int returns element i as int regardless of storage type.
func (t RawTensor) Int(i int) int {
	if t.Int64 != nil {
		return int(t.Int64[i])
	}
	return int(t.Float32[i])
}

// RawOutputs maps graph output names to tensors.
type RawOutputs map[string]RawTensor

// Get returns the named output, or an error naming the missing output.
func (o RawOutputs) Get(name string) (RawTensor, error) {
	t, ok := o[name]
	if !ok {
		return RawTensor{}, fmt.Errorf("missing model output %q", name)
	}
	return t, nil
}

// Rows returns how many rows of width elements t holds.
//
// A tensor of shape [1, N, K] or [N, K] with width K yields N.
func Rows(t RawTensor, width int) (int, error) {
	n := t.Len()
	if width <= 0 || n%width != 0 {
		return 0, fmt.Errorf("output of %d elements (shape %v) is not rows of %d", n, t.Shape, width)
	}
	return n / width, nil
}

// CheckClass verifies a decoded class id fits a model with numClasses outputs.
func CheckClass(class, numClasses int) error {
	if class < 0 || class >= numClasses {
		return fmt.Errorf("class id %d outside model class range [0,%d)", class, numClasses)
	}
	return nil
}
