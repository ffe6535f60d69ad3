package inference

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models/model/preprocess"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// PredictorOptions configure a Predictor.
type PredictorOptions struct {
	// MaxSide downsizes native-size inputs so the longest side is at most MaxSide. Zero disables it.
	MaxSide int `json:"maxSide" yaml:"maxSide"`
}

// Predictor runs the inference stage: normalize, forward pass, threshold.
//
// It holds no per-request state and is safe for concurrent use.
type Predictor struct {
	normalizer preprocess.Normalizer
	options    PredictorOptions
}

// NewPredictor creates a predictor using ImageNet normalization.
func NewPredictor(options PredictorOptions) *Predictor {
	return &Predictor{normalizer: preprocess.ImageNet(), options: options}
}

// Predict runs handle over img and filters the result by thresholds.
//
// Arguments:
//   - ctx: Request context, checked before the forward pass.
//   - handle: A loaded model.
//   - img: The decoded input image.
//   - thresholds: Detection and mask thresholds, both inclusive.
//
// Returns:
//   - images.Image: The model input denormalized back to display range.
//   - postprocess.Prediction: The retained instances, boxes in display image coordinates.
//   - error: A ConfigurationError for invalid thresholds, otherwise an InferenceError.
func (p *Predictor) Predict(
	ctx context.Context,
	handle *Handle,
	img images.Image,
	thresholds Thresholds,
) (images.Image, postprocess.Prediction, error) {
	if err := thresholds.Validate(); err != nil {
		return images.Image{}, postprocess.Prediction{}, err
	}
	if handle == nil || handle.runner == nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("predict", fmt.Errorf("model is not loaded"))
	}
	if err := img.Validate(); err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("predict", err)
	}

	opts := handle.Options()
	if opts.InputSize > 0 {
		img = images.Resize(img, opts.InputSize, opts.InputSize)
	} else {
		img = images.ResizeToFit(img, p.options.MaxSide)
	}

	input, err := p.normalizer.Normalize(img)
	if err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("normalize", err)
	}
	data, err := preprocess.Float32s(input)
	if err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("normalize", err)
	}

	shape := []int64{1, int64(images.Channels), int64(img.Height), int64(img.Width)}
	if opts.InputRank == 3 {
		shape = shape[1:]
	}

	if err := ctx.Err(); err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("predict", err)
	}

	raw, err := handle.runner.Run(shape, data)
	if err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("forward pass", err)
	}

	candidates, err := handle.model.Decode(raw, img.Width, img.Height)
	if err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("decode outputs", err)
	}

	display, err := p.normalizer.Denormalize(input)
	if err != nil {
		return images.Image{}, postprocess.Prediction{}, common.InferenceError("denormalize", errors.Wrap(err, "display image"))
	}
	display.Format = img.Format

	pred := postprocess.Finalize(
		candidates,
		thresholds.Detection,
		thresholds.Mask,
		display.Width,
		display.Height,
		opts.Kind.HasMasks(),
	)
	return display, pred, nil
}
