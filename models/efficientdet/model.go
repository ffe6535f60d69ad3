// Package efficientdet - EfficientDet model.
package efficientdet

import (
	"github.com/nvr-ai/detect-demo/models/model"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// DefaultInputSize is the square input side of the D0 variant.
const DefaultInputSize = 512

// Default graph tensor names.
var (
	DefaultInputs  = []string{"images"}
	DefaultOutputs = []string{"detections"}
)

// EfficientDet is the instance of the EfficientDet model.
type EfficientDet struct {
	options model.Options
}

// Options returns the options for the EfficientDet model.
//
// Returns:
//   - The options for the EfficientDet model.
func (m *EfficientDet) Options() model.Options {
	return m.options
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
//   - An error if the arguments are invalid.
func NewModel(args model.NewModelArgs) (*EfficientDet, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	size := args.InputSize
	if size == 0 {
		size = DefaultInputSize
	}
	nms := args.NMS
	if nms == nil {
		nms = postprocess.DefaultNMSConfig()
	}
	return &EfficientDet{
		options: model.Options{
			Kind:       model.KindEfficientDet,
			NumClasses: args.NumClasses,
			Inputs:     model.Or(args.Inputs, DefaultInputs),
			Outputs:    model.Or(args.Outputs, DefaultOutputs),
			InputSize:  size,
			InputRank:  4,
			NMS:        nms,
		},
	}, nil
}
