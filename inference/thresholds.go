// Package inference - Model loading, caching and prediction.
package inference

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/detect-demo/common"
)

// DefaultThreshold is the default for both thresholds.
const DefaultThreshold float32 = 0.5

// Thresholds are the two confidence cut-offs applied to a prediction.
//
// Both are inclusive: a detection whose score equals Detection is kept, and a mask
// pixel whose probability equals Mask is included.
type Thresholds struct {
	Detection float32 `json:"detection_threshold" yaml:"detection"`
	Mask      float32 `json:"mask_threshold"      yaml:"mask"`
}

// DefaultThresholds returns 0.5 for both thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Detection: DefaultThreshold, Mask: DefaultThreshold}
}

// Validate rejects values outside [0, 1] and NaN with a ConfigurationError.
func (t Thresholds) Validate() error {
	if err := checkUnit("detection threshold", t.Detection); err != nil {
		return err
	}
	return checkUnit("mask threshold", t.Mask)
}

func checkUnit(name string, v float32) error {
	if math32.IsNaN(v) || v < 0 || v > 1 {
		return common.ConfigurationError("thresholds", fmt.Errorf("%s %v outside [0,1]", name, v))
	}
	return nil
}
