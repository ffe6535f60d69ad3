// Package efficientdet - postprocess EfficientDet model outputs.
package efficientdet

import (
	"fmt"

	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models/model"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

const rowSize = 6

// Decode postprocesses the output of the EfficientDet model.
//
// Each detection row is [x1, y1, x2, y2, score, class]. All-zero rows are padding,
// as are rows with a negative score. A real row with score 0 is kept.
// Candidates are sorted and passed through greedy NMS.
//
// Arguments:
//   - outputs: The raw graph outputs.
//   - width, height: The model input dimensions.
//
// Returns:
//   - A slice of candidates sorted by descending score.
//   - An error if the output is malformed or names an unknown class.
func (m *EfficientDet) Decode(outputs model.RawOutputs, width, height int) ([]postprocess.Candidate, error) {
	if len(m.options.Outputs) == 0 {
		return nil, fmt.Errorf("efficientdet needs a detections output")
	}
	out, err := outputs.Get(m.options.Outputs[0])
	if err != nil {
		return nil, err
	}
	numRows, err := model.Rows(out, rowSize)
	if err != nil {
		return nil, err
	}

	results := make([]postprocess.Candidate, 0, numRows)
	for i := 0; i < numRows; i++ {
		offset := i * rowSize
		score := out.Float(offset + 4)
		if score < 0 || isPadding(out, offset) {
			continue
		}
		class := out.Int(offset + 5)
		if err := model.CheckClass(class, m.options.NumClasses); err != nil {
			return nil, err
		}
		box := images.Rect{
			X1: out.Float(offset + 0),
			Y1: out.Float(offset + 1),
			X2: out.Float(offset + 2),
			Y2: out.Float(offset + 3),
		}
		results = append(results, postprocess.Candidate{
			Result: postprocess.Result{
				Box:   box.Clamp(float32(width), float32(height)),
				Score: score,
				Class: class,
			},
		})
	}

	postprocess.SortByScore(results)
	return postprocess.ApplyGreedyNMS(results, m.options.NMS), nil
}

func isPadding(out model.RawTensor, offset int) bool {
	for j := 0; j < rowSize; j++ {
		if out.Float(offset+j) != 0 {
			return false
		}
	}
	return true
}
