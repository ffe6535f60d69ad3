// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/detect-demo/models/efficientdet"
	"github.com/nvr-ai/detect-demo/models/fasterrcnn"
	"github.com/nvr-ai/detect-demo/models/maskrcnn"
	"github.com/nvr-ai/detect-demo/models/model"
)

// NewModel creates a new detection model instance based on the specified architecture.
//
// The architecture is resolved once here; callers hold the returned strategy and never
// re-check the kind per call.
//
// Arguments:
//   - args: Configuration parameters specifying the architecture and class count.
//
// Returns:
//   - model.Model: A fully configured model instance implementing the Model interface.
//   - error: An error if the architecture is unsupported or the arguments are invalid.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{
//	    Kind:       model.KindMaskRCNN,
//	    NumClasses: PennFudanClasses.Len(),
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create detection model: %v", err)
//	}
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Kind {
	case model.KindMaskRCNN:
		m, err := maskrcnn.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.KindFasterRCNN:
		m, err := fasterrcnn.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.KindEfficientDet:
		m, err := efficientdet.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported architecture: %q", args.Kind)
	}
}
