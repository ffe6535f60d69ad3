package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nvr-ai/detect-demo/models/model"
)

// MockRunner returns canned outputs and records the input it was given.
type MockRunner struct {
	mu        sync.Mutex
	outputs   model.RawOutputs
	err       error
	lastShape []int64
	calls     int
	closed    bool
}

func (m *MockRunner) Run(shape []int64, data []float32) (model.RawOutputs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastShape = append([]int64(nil), shape...)
	if m.err != nil {
		return nil, m.err
	}
	return m.outputs, nil
}

func (m *MockRunner) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockWeights serves fixed bytes and counts fetches.
type MockWeights struct {
	data  []byte
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (m *MockWeights) FetchWeights(ctx context.Context, url string) ([]byte, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// rcnnOutputs builds torchvision style outputs for the given scores, all class 1.
func rcnnOutputs(scores ...float32) model.RawOutputs {
	n := len(scores)
	boxes := make([]float32, 0, n*4)
	labels := make([]int64, n)
	for i := 0; i < n; i++ {
		off := float32(i * 10)
		boxes = append(boxes, off, off, off+8, off+8)
		labels[i] = 1
	}
	return model.RawOutputs{
		"boxes":  {Shape: []int64{int64(n), 4}, Float32: boxes},
		"labels": {Shape: []int64{int64(n)}, Int64: labels},
		"scores": {Shape: []int64{int64(n)}, Float32: scores},
	}
}

func mockFactory(r *MockRunner) RunnerFactory {
	return func(graph []byte, opts model.Options) (Runner, error) {
		if len(graph) == 0 {
			return nil, errors.New("empty graph")
		}
		return r, nil
	}
}
