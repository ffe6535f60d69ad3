package inference

import (
	"github.com/nvr-ai/detect-demo/models/model"
)

// Runner executes one forward pass of a loaded graph.
type Runner interface {
	Run(shape []int64, data []float32) (model.RawOutputs, error)
	Close() error
}

// Key identifies a loaded model in the cache.
type Key struct {
	Kind       model.Kind
	WeightsURL string
}

// String formats the key for logs and single-flight grouping.
func (k Key) String() string {
	return string(k.Kind) + "|" + k.WeightsURL
}

// Handle is a loaded, ready-to-infer model. It is never mutated after construction.
type Handle struct {
	key    Key
	model  model.Model
	runner Runner
}

// NewHandle binds a decoding strategy to a runner.
func NewHandle(key Key, m model.Model, runner Runner) *Handle {
	return &Handle{key: key, model: m, runner: runner}
}

// Key returns the cache key of the handle.
func (h *Handle) Key() Key {
	return h.key
}

// Model returns the decoding strategy.
func (h *Handle) Model() model.Model {
	return h.model
}

// Options returns the model options.
func (h *Handle) Options() model.Options {
	return h.model.Options()
}

// Close releases the runner.
func (h *Handle) Close() error {
	if h.runner == nil {
		return nil
	}
	return h.runner.Close()
}
