// Package maskrcnn - Mask R-CNN model.
package maskrcnn

import (
	"github.com/nvr-ai/detect-demo/models/fasterrcnn"
	"github.com/nvr-ai/detect-demo/models/model"
)

// Default graph tensor names of a torchvision Mask R-CNN export.
var (
	DefaultInputs  = fasterrcnn.DefaultInputs
	DefaultOutputs = []string{"boxes", "labels", "scores", "masks"}
)

// MaskRCNN is the instance of the Mask R-CNN model.
type MaskRCNN struct {
	options model.Options
}

// Options returns the options for the Mask R-CNN model.
func (m *MaskRCNN) Options() model.Options {
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
func NewModel(args model.NewModelArgs) (*MaskRCNN, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	return &MaskRCNN{
		options: model.Options{
			Kind:       model.KindMaskRCNN,
			NumClasses: args.NumClasses,
			Inputs:     model.Or(args.Inputs, DefaultInputs),
			Outputs:    model.Or(args.Outputs, DefaultOutputs),
			InputSize:  args.InputSize,
			InputRank:  3,
		},
	}, nil
}
