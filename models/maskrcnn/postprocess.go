// Package maskrcnn - postprocess Mask R-CNN model outputs.
package maskrcnn

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"

	"github.com/nvr-ai/detect-demo/models/fasterrcnn"
	"github.com/nvr-ai/detect-demo/models/model"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// Decode reads boxes, labels, scores and [N,1,H,W] mask probabilities.
//
// Masks whose spatial size differs from the input are resampled to width x height.
//
// Arguments:
//   - outputs: The raw graph outputs.
//   - width, height: The model input dimensions.
//
// Returns:
//   - A slice of candidates, each carrying its probability mask.
//   - An error if an output is missing or malformed.
func (m *MaskRCNN) Decode(outputs model.RawOutputs, width, height int) ([]postprocess.Candidate, error) {
	results, err := fasterrcnn.DecodeDetections(outputs, m.options, width, height)
	if err != nil {
		return nil, err
	}
	if len(m.options.Outputs) < 4 {
		return nil, fmt.Errorf("mask_rcnn needs a masks output, got %v", m.options.Outputs)
	}
	masks, err := outputs.Get(m.options.Outputs[3])
	if err != nil {
		return nil, err
	}
	if masks.Float32 == nil {
		return nil, fmt.Errorf("masks output must be float32")
	}

	n := len(results)
	if n == 0 {
		return results, nil
	}
	mh, mw, err := maskDims(masks.Shape, n)
	if err != nil {
		return nil, err
	}

	plane := mh * mw
	if len(masks.Float32) != n*plane {
		return nil, fmt.Errorf("masks hold %d values, want %d", len(masks.Float32), n*plane)
	}
	for i := range results {
		data := masks.Float32[i*plane : (i+1)*plane]
		prob := &postprocess.ProbabilityMask{Width: mw, Height: mh, Data: append([]float32(nil), data...)}
		if mw != width || mh != height {
			prob = Resample(prob, width, height)
		}
		results[i].Mask = prob
	}
	return results, nil
}

func maskDims(shape []int64, n int) (h, w int, err error) {
	if len(shape) < 3 {
		return 0, 0, fmt.Errorf("masks shape %v has rank < 3", shape)
	}
	h = int(shape[len(shape)-2])
	w = int(shape[len(shape)-1])
	count := 1
	for _, d := range shape[:len(shape)-2] {
		count *= int(d)
	}
	if count != n || h <= 0 || w <= 0 {
		return 0, 0, fmt.Errorf("masks shape %v does not hold %d instances", shape, n)
	}
	return h, w, nil
}

// Resample resizes a probability mask to width x height with bilinear interpolation.
func Resample(m *postprocess.ProbabilityMask, width, height int) *postprocess.ProbabilityMask {
	src := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	for i, p := range m.Data {
		v := uint16(math32.Round(clamp01(p) * 0xffff))
		src.Pix[i*2] = uint8(v >> 8)
		src.Pix[i*2+1] = uint8(v)
	}

	dst := resize.Resize(uint(width), uint(height), src, resize.Bilinear)

	out := &postprocess.ProbabilityMask{Width: width, Height: height, Data: make([]float32, width*height)}
	b := dst.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g, _, _, _ := dst.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Data[y*width+x] = float32(g) / 0xffff
		}
	}
	return out
}

func clamp01(v float32) float32 {
	return math32.Min(1, math32.Max(0, v))
}
