package providers

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/detect-demo/models/model"
)

// Session represents a model session from the onnxruntime.
//
// Output tensors are allocated by the runtime per call, so one session serves
// inputs of any spatial size.
type Session struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The serialized ONNX graph.
	ONNX []byte
	// The input tensor names of the graph.
	Inputs []string
	// The output tensor names of the graph, in decode order.
	Outputs []string
}

// NewSession creates a new ONNX Runtime session.
//
// Order of operations:
//  1. Environment setup: loads the native runtime once per process.
//  2. Session options: threading, optimization level and execution provider.
//  3. Session creation: loads the graph from memory.
//
// Arguments:
//   - config: The execution provider configuration.
//   - args: The graph and its tensor names.
//
// Returns:
//   - *Session: The runnable session.
//   - error: An error if the session creation fails.
func NewSession(config Config, args NewSessionArgs) (*Session, error) {
	if len(args.ONNX) == 0 {
		return nil, fmt.Errorf("empty ONNX graph")
	}
	if len(args.Inputs) != 1 {
		return nil, fmt.Errorf("expected exactly one input, got %v", args.Inputs)
	}
	if len(args.Outputs) == 0 {
		return nil, fmt.Errorf("no outputs configured")
	}

	if err := InitEnvironment(config.LibraryPath); err != nil {
		return nil, err
	}

	options, err := config.SessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(args.ONNX, args.Inputs, args.Outputs, options)
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{session: session, inputs: args.Inputs, outputs: args.Outputs}, nil
}

// Run executes one forward pass over a float32 input of the given shape.
//
// Arguments:
//   - shape: The input tensor shape.
//   - data: The input tensor data, len equal to the product of shape.
//
// Returns:
//   - model.RawOutputs: The outputs, copied out of the runtime, keyed by name.
//   - error: An error if the run fails or an output has an unsupported type.
func (s *Session) Run(shape []int64, data []float32) (model.RawOutputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("session is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := make([]ort.Value, len(s.outputs))
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("error running ORT session: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	raw := make(model.RawOutputs, len(s.outputs))
	for i, name := range s.outputs {
		t, err := copyOut(outputs[i])
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		raw[name] = t
	}
	return raw, nil
}

func copyOut(v ort.Value) (model.RawTensor, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return model.RawTensor{
			Shape:   append([]int64(nil), t.GetShape()...),
			Float32: append([]float32(nil), t.GetData()...),
		}, nil
	case *ort.Tensor[int64]:
		return model.RawTensor{
			Shape: append([]int64(nil), t.GetShape()...),
			Int64: append([]int64(nil), t.GetData()...),
		}, nil
	case *ort.Tensor[int32]:
		data := t.GetData()
		ints := make([]int64, len(data))
		for i, d := range data {
			ints[i] = int64(d)
		}
		return model.RawTensor{Shape: append([]int64(nil), t.GetShape()...), Int64: ints}, nil
	case nil:
		return model.RawTensor{}, fmt.Errorf("not produced")
	default:
		return model.RawTensor{}, fmt.Errorf("unsupported output type %T", v)
	}
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("error destroying ORT session: %w", err)
	}
	return nil
}
