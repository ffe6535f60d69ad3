// Package fasterrcnn - Faster R-CNN model.
package fasterrcnn

import (
	"github.com/nvr-ai/detect-demo/models/model"
)

// Default graph tensor names of a torchvision detection export.
var (
	DefaultInputs  = []string{"images"}
	DefaultOutputs = []string{"boxes", "labels", "scores"}
)

// FasterRCNN is the instance of the Faster R-CNN model.
type FasterRCNN struct {
	options model.Options
}

// Options returns the options for the Faster R-CNN model.
//
// Returns:
//   - The options for the Faster R-CNN model.
func (m *FasterRCNN) Options() model.Options {
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
func NewModel(args model.NewModelArgs) (*FasterRCNN, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	return &FasterRCNN{
		options: model.Options{
			Kind:       model.KindFasterRCNN,
			NumClasses: args.NumClasses,
			Inputs:     model.Or(args.Inputs, DefaultInputs),
			Outputs:    model.Or(args.Outputs, DefaultOutputs),
			InputSize:  args.InputSize,
			InputRank:  3,
		},
	}, nil
}
