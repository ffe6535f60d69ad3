// Package model - Definitions shared by every supported detection architecture.
package model

import (
	"fmt"
	"strings"

	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// Kind is the architecture of a detection model.
type Kind string

const (
	// KindMaskRCNN is Mask R-CNN: boxes plus per-instance segmentation masks.
	KindMaskRCNN Kind = "mask_rcnn"
	// KindFasterRCNN is Faster R-CNN: boxes only.
	KindFasterRCNN Kind = "faster_rcnn"
	// KindEfficientDet is EfficientDet: boxes only, fixed square input.
	KindEfficientDet Kind = "efficientdet"
)

// Kinds lists every supported architecture.
var Kinds = []Kind{KindMaskRCNN, KindFasterRCNN, KindEfficientDet}

// ParseKind resolves an architecture name, case-insensitively.
//
// Arguments:
//   - s: The architecture name, e.g. "mask_rcnn".
//
// Returns:
//   - Kind: The architecture.
//   - error: An error if the name is not a supported architecture.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported architecture: %q", s)
}

// HasMasks reports whether the architecture produces instance masks.
func (k Kind) HasMasks() bool {
	return k == KindMaskRCNN
}

// Options describe how to feed and read a model.
type Options struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// NumClasses is the number of output classes including background.
	NumClasses int `json:"numClasses" yaml:"numClasses"`
	// Inputs and Outputs are the graph tensor names, in order.
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// InputSize is the fixed square input side, or 0 for the native image size.
	InputSize int `json:"inputSize" yaml:"inputSize"`
	// InputRank is 3 for graphs taking a single [C,H,W] image, 4 for [N,C,H,W].
	InputRank int `json:"inputRank" yaml:"inputRank"`
	// NMS is applied after decoding by architectures that need it.
	NMS *postprocess.NMSConfig `json:"nms" yaml:"nms"`
}

// Model is a detection architecture's decoding strategy.
type Model interface {
	// Options returns how the model is fed and read.
	Options() Options
	// Decode turns the raw graph outputs into candidates. Width and height are the
	// dimensions of the model input image.
	Decode(outputs RawOutputs, width, height int) ([]postprocess.Candidate, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Kind       Kind                   `json:"kind" yaml:"kind"`
	NumClasses int                    `json:"numClasses" yaml:"numClasses"`
	NMS        *postprocess.NMSConfig `json:"nms" yaml:"nms"`
	Inputs     []string               `json:"inputs" yaml:"inputs"`
	Outputs    []string               `json:"outputs" yaml:"outputs"`
	InputSize  int                    `json:"inputSize" yaml:"inputSize"`
}

// Validate checks the arguments common to every architecture.
func (a NewModelArgs) Validate() error {
	if a.NumClasses < 2 {
		return fmt.Errorf("numClasses must include background and at least one class, got %d", a.NumClasses)
	}
	if a.InputSize < 0 {
		return fmt.Errorf("inputSize must not be negative, got %d", a.InputSize)
	}
	return nil
}

// Or returns names when set, otherwise fallback.
func Or(names, fallback []string) []string {
	if len(names) > 0 {
		return names
	}
	return fallback
}
