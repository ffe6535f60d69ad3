package postprocess

import "sort"

// Threshold comparisons are inclusive: a value equal to the threshold is kept.

// Admits reports whether score passes threshold.
func Admits(score, threshold float32) bool {
	return score >= threshold
}

// FilterByScore keeps the candidates whose score is at least threshold.
//
// Order is preserved, so the result at a higher threshold is always a subset of the
// result at a lower one.
//
// Arguments:
//   - candidates: Raw decoded candidates.
//   - threshold: Minimum score, inclusive.
//
// Returns:
//   - A new slice of admitted candidates, possibly empty.
func FilterByScore(candidates []Candidate, threshold float32) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Admits(c.Score, threshold) {
			out = append(out, c)
		}
	}
	return out
}

// Binarize includes a pixel iff its probability is at least threshold.
//
// Returns nil for a nil mask.
func Binarize(m *ProbabilityMask, threshold float32) *BinaryMask {
	if m == nil {
		return nil
	}
	out := &BinaryMask{Width: m.Width, Height: m.Height, Bits: make([]bool, len(m.Data))}
	for i, p := range m.Data {
		out.Bits[i] = Admits(p, threshold)
	}
	return out
}

// SortByScore orders candidates by descending score. Ties keep their decode order.
func SortByScore(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// Finalize thresholds candidates and binarizes their masks into a Prediction.
//
// Arguments:
//   - candidates: Raw decoded candidates.
//   - detection: Minimum detection score, inclusive.
//   - mask: Minimum mask pixel probability, inclusive.
//   - width, height: Dimensions of the image the boxes refer to.
//   - hasMasks: Whether the producing architecture segments instances.
//
// Returns:
//   - Prediction: Instances sorted by descending score.
func Finalize(candidates []Candidate, detection, mask float32, width, height int, hasMasks bool) Prediction {
	kept := FilterByScore(candidates, detection)
	SortByScore(kept)

	pred := Prediction{Width: width, Height: height, HasMasks: hasMasks, Instances: make([]Instance, len(kept))}
	for i, c := range kept {
		pred.Instances[i] = Instance{Result: c.Result, Mask: Binarize(c.Mask, mask)}
	}
	return pred
}
