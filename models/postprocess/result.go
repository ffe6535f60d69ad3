// Package postprocess - Postprocessing utilities for models.
package postprocess

import "github.com/nvr-ai/detect-demo/images"

// Result represents a single detection result.
type Result struct {
	// The bounding box of the result, in model input pixel coordinates.
	Box images.Rect
	// The confidence score of the result.
	Score float32
	// The predicted class index of the result.
	Class int
}

// ProbabilityMask is a per-pixel foreground probability map for one instance.
type ProbabilityMask struct {
	Width, Height int
	// Data is row-major, Width*Height values in [0, 1].
	Data []float32
}

// At returns the probability at (x, y).
func (m *ProbabilityMask) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// BinaryMask is a thresholded instance mask.
type BinaryMask struct {
	Width, Height int
	// Bits is row-major, true where the pixel belongs to the instance.
	Bits []bool
}

// At reports whether (x, y) belongs to the instance.
func (m *BinaryMask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Count returns the number of foreground pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Candidate is a raw decoded detection before thresholding.
type Candidate struct {
	Result
	// Mask is set by architectures that segment instances.
	Mask *ProbabilityMask
}

// Instance is a retained detection.
type Instance struct {
	Result
	// Mask is nil for box-only architectures.
	Mask *BinaryMask
}

// Prediction is the filtered output of one forward pass.
type Prediction struct {
	// Width and Height are the dimensions of the image the boxes refer to.
	Width, Height int
	// HasMasks is true when the producing architecture segments instances.
	HasMasks bool
	// Instances are ordered by descending score; masks are index-aligned with boxes.
	Instances []Instance
}

// Boxes returns the boxes of every instance in order.
func (p Prediction) Boxes() []images.Rect {
	out := make([]images.Rect, len(p.Instances))
	for i, inst := range p.Instances {
		out[i] = inst.Box
	}
	return out
}
