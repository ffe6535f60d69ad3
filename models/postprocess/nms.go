// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import "github.com/nvr-ai/detect-demo/images"

// DefaultIoUThreshold is the overlap above which a lower scored box is suppressed.
const DefaultIoUThreshold float32 = 0.5

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 `json:"iouThreshold" yaml:"iouThreshold"` // Overlap threshold for suppression.
	ClassAware   bool    `json:"classAware"   yaml:"classAware"`   // If true, suppress only within same class.
}

// DefaultNMSConfig returns class-aware suppression at DefaultIoUThreshold.
func DefaultNMSConfig() *NMSConfig {
	return &NMSConfig{IoUThreshold: DefaultIoUThreshold, ClassAware: true}
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Arguments:
//   - candidates: Slice of candidates sorted by descending confidence.
//   - config: Suppression settings. A nil config uses DefaultNMSConfig.
//
// Returns:
//   - Filtered slice of candidates. If none are provided, returns nil.
func ApplyGreedyNMS(candidates []Candidate, config *NMSConfig) []Candidate {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	if config == nil {
		config = DefaultNMSConfig()
	}

	filtered := make([]Candidate, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := candidates[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.Class != candidates[j].Class {
				continue
			}

			// Suppress if IoU exceeds threshold
			if images.CalculateIoU(anchor.Box, candidates[j].Box) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
