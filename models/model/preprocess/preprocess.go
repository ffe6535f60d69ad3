// Package preprocess - Normalization of images into model input tensors and back.
package preprocess

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/detect-demo/images"
)

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne NormalizationType = iota
	// NormalizeStandardize scales to [0, 1] then applies per-channel mean and std.
	NormalizeStandardize
)

// Normalizer converts RGB images to CHW float32 tensors.
type Normalizer struct {
	// Type selects the normalization scheme.
	Type NormalizationType
	// Mean and Std are per-channel RGB values on the [0, 1] scale.
	Mean [3]float32
	Std  [3]float32
}

// ImageNet returns the standard ImageNet standardization used by torchvision backbones.
func ImageNet() Normalizer {
	return Normalizer{
		Type: NormalizeStandardize,
		Mean: [3]float32{0.485, 0.456, 0.406},
		Std:  [3]float32{0.229, 0.224, 0.225},
	}
}

// Validate rejects a standardizing normalizer with a zero std.
func (n Normalizer) Validate() error {
	if n.Type != NormalizeStandardize {
		return nil
	}
	for c, s := range n.Std {
		if s == 0 {
			return errors.Errorf("std of channel %d is zero", c)
		}
	}
	return nil
}

// Normalize wraps img into a batch of one as a [1, 3, H, W] tensor.
//
// Arguments:
//   - img: An RGB image.
//
// Returns:
//   - *tensor.Dense: The normalized float32 tensor.
//   - error: An error if the image or normalizer is invalid.
func (n Normalizer) Normalize(img images.Image) (*tensor.Dense, error) {
	if err := img.Validate(); err != nil {
		return nil, errors.Wrap(err, "normalize")
	}
	if err := n.Validate(); err != nil {
		return nil, errors.Wrap(err, "normalize")
	}

	plane := img.Width * img.Height
	data := make([]float32, images.Channels*plane)
	for p := 0; p < plane; p++ {
		for c := 0; c < images.Channels; c++ {
			v := float32(img.Pix[p*images.Channels+c]) / 255.0
			if n.Type == NormalizeStandardize {
				v = (v - n.Mean[c]) / n.Std[c]
			}
			data[c*plane+p] = v
		}
	}

	return tensor.New(
		tensor.WithShape(1, images.Channels, img.Height, img.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(data),
	), nil
}

// Denormalize reverses Normalize, producing a display image clamped to [0, 255].
//
// Arguments:
//   - t: A [1, 3, H, W] or [3, H, W] float32 tensor.
//
// Returns:
//   - images.Image: The display image.
//   - error: An error if the tensor has the wrong shape or type.
func (n Normalizer) Denormalize(t *tensor.Dense) (images.Image, error) {
	shape := t.Shape()
	if len(shape) == 4 {
		if shape[0] != 1 {
			return images.Image{}, errors.Errorf("denormalize: batch of %d, want 1", shape[0])
		}
		shape = shape[1:]
	}
	if len(shape) != 3 || shape[0] != images.Channels {
		return images.Image{}, errors.Errorf("denormalize: shape %v is not [%d,H,W]", t.Shape(), images.Channels)
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return images.Image{}, errors.Errorf("denormalize: dtype %v, want float32", t.Dtype())
	}

	h, w := shape[1], shape[2]
	out := images.NewImage(w, h)
	plane := w * h
	for p := 0; p < plane; p++ {
		for c := 0; c < images.Channels; c++ {
			v := data[c*plane+p]
			if n.Type == NormalizeStandardize {
				v = v*n.Std[c] + n.Mean[c]
			}
			out.Pix[p*images.Channels+c] = uint8(math32.Round(math32.Min(1, math32.Max(0, v)) * 255))
		}
	}
	return out, nil
}

// Float32s returns the backing slice of a float32 tensor.
func Float32s(t *tensor.Dense) ([]float32, error) {
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("dtype %v, want float32", t.Dtype())
	}
	return data, nil
}
