// Package providers - ONNX Runtime environment, execution providers and sessions.
package providers

import (
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Config selects and tunes the execution provider for every session.
type Config struct {
	// Backend specifies the backend to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// IntraOpThreads parallelizes inside a node; 0 lets the runtime decide.
	IntraOpThreads int `json:"intraOpThreads" yaml:"intraOpThreads"`
	// InterOpThreads parallelizes independent nodes; 0 lets the runtime decide.
	InterOpThreads int `json:"interOpThreads" yaml:"interOpThreads"`
	// CUDA options, used when Backend is cuda.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
	// CoreML options, used when Backend is coreml.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml"`
	// OpenVINO options, used when Backend is openvino.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// DefaultConfig returns a CPU configuration.
func DefaultConfig() Config {
	return Config{Backend: CPUProviderBackend}
}

// ParseBackend resolves a backend name, case-insensitively. Empty means cpu.
func ParseBackend(s string) (ProviderBackend, error) {
	b := ProviderBackend(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case "":
		return CPUProviderBackend, nil
	case CPUProviderBackend, CUDAProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported execution provider: %q", s)
	}
}

// Validate checks the backend name and thread counts.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return fmt.Errorf("thread counts must not be negative")
	}
	return nil
}

// SessionOptions builds runtime session options for the configured backend.
//
// The caller destroys the returned options.
func (c Config) SessionOptions() (*ort.SessionOptions, error) {
	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	if err := options.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(c.InterOpThreads); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error setting inter-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error setting graph optimization level: %w", err)
	}

	switch backend {
	case CPUProviderBackend:
	case CUDAProviderBackend:
		err = c.CUDA.apply(options)
	case CoreMLProviderBackend:
		err = c.CoreML.apply(options)
	case OpenVINOProviderBackend:
		err = c.OpenVINO.apply(options)
	}
	if err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}
