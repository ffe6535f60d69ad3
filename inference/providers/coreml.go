package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreML provider flags as defined by coreml_provider_factory.h.
const (
	coreMLUseCPUOnly                 uint32 = 0x001
	coreMLEnableOnSubgraph           uint32 = 0x002
	coreMLOnlyEnableDeviceWithANE    uint32 = 0x004
	coreMLOnlyAllowStaticInputShapes uint32 = 0x008
	coreMLCreateMLProgram            uint32 = 0x010
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Limit CoreML to running on CPU only.
	CPUOnly bool `json:"cpuOnly"                  yaml:"cpuOnly"`
	// Run on subgraphs in the body of control flow operators.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs"        yaml:"enableOnSubgraphs"`
	// Only enable on devices with an Apple Neural Engine.
	RequireANE bool `json:"requireANE"               yaml:"requireANE"`
	// Only take nodes whose inputs have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Create an MLProgram instead of a NeuralNetwork model.
	MLProgram bool `json:"mlProgram"                yaml:"mlProgram"`
}

// Flags returns the provider flag bitmask.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	if o.CPUOnly {
		flags |= coreMLUseCPUOnly
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLEnableOnSubgraph
	}
	if o.RequireANE {
		flags |= coreMLOnlyEnableDeviceWithANE
	}
	if o.RequireStaticInputShapes {
		flags |= coreMLOnlyAllowStaticInputShapes
	}
	if o.MLProgram {
		flags |= coreMLCreateMLProgram
	}
	return flags
}

func (o CoreMLOptions) apply(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderCoreML(o.Flags()); err != nil {
		return fmt.Errorf("error enabling CoreML: %w", err)
	}
	return nil
}
