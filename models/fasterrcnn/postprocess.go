// Package fasterrcnn - postprocess Faster R-CNN model outputs.
package fasterrcnn

import (
	"fmt"

	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models/model"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// Decode reads the boxes, labels and scores outputs of the Faster R-CNN model.
//
// Arguments:
//   - outputs: The raw graph outputs.
//   - width, height: The model input dimensions boxes are clamped to.
//
// Returns:
//   - A slice of candidates in output order.
//   - An error if an output is missing, malformed or names an unknown class.
func (m *FasterRCNN) Decode(outputs model.RawOutputs, width, height int) ([]postprocess.Candidate, error) {
	return DecodeDetections(outputs, m.options, width, height)
}

// DecodeDetections decodes torchvision style [N,4] boxes, [N] labels and [N] scores.
//
// The first three output names of opts are read as boxes, labels and scores.
func DecodeDetections(outputs model.RawOutputs, opts model.Options, width, height int) ([]postprocess.Candidate, error) {
	if len(opts.Outputs) < 3 {
		return nil, fmt.Errorf("%s needs boxes, labels and scores outputs, got %v", opts.Kind, opts.Outputs)
	}
	boxes, err := outputs.Get(opts.Outputs[0])
	if err != nil {
		return nil, err
	}
	labels, err := outputs.Get(opts.Outputs[1])
	if err != nil {
		return nil, err
	}
	scores, err := outputs.Get(opts.Outputs[2])
	if err != nil {
		return nil, err
	}

	n, err := model.Rows(boxes, 4)
	if err != nil {
		return nil, err
	}
	if labels.Len() != n || scores.Len() != n {
		return nil, fmt.Errorf("output length mismatch: %d boxes, %d labels, %d scores", n, labels.Len(), scores.Len())
	}

	results := make([]postprocess.Candidate, 0, n)
	for i := 0; i < n; i++ {
		class := labels.Int(i)
		if err := model.CheckClass(class, opts.NumClasses); err != nil {
			return nil, err
		}
		box := images.Rect{
			X1: boxes.Float(i*4 + 0),
			Y1: boxes.Float(i*4 + 1),
			X2: boxes.Float(i*4 + 2),
			Y2: boxes.Float(i*4 + 3),
		}
		results = append(results, postprocess.Candidate{
			Result: postprocess.Result{
				Box:   box.Clamp(float32(width), float32(height)),
				Score: scores.Float(i),
				Class: class,
			},
		})
	}
	return results, nil
}
