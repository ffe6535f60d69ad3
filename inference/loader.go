package inference

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/inference/providers"
	"github.com/nvr-ai/detect-demo/models"
	"github.com/nvr-ai/detect-demo/models/model"
	"github.com/nvr-ai/detect-demo/models/postprocess"
	"github.com/nvr-ai/detect-demo/util"
)

// DefaultMaxWeightBytes caps a downloaded weights archive.
const DefaultMaxWeightBytes int64 = 1 << 30

// WeightsSource downloads serialized weights.
type WeightsSource interface {
	FetchWeights(ctx context.Context, url string) ([]byte, error)
}

// HTTPWeights downloads weights with an images.Fetcher transport.
type HTTPWeights struct {
	Fetcher  *images.Fetcher
	MaxBytes int64
}

// FetchWeights downloads url fully. All failures are network errors.
func (w *HTTPWeights) FetchWeights(ctx context.Context, url string) ([]byte, error) {
	rc, err := w.Fetcher.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := w.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxWeightBytes
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, common.NetworkError("fetch weights", err)
	}
	if int64(len(data)) > limit {
		return nil, common.NetworkError("fetch weights", errors.Errorf("weights exceed %d bytes", limit))
	}
	return data, nil
}

// RunnerFactory creates a runner for a serialized graph.
type RunnerFactory func(graph []byte, opts model.Options) (Runner, error)

// ORTRunnerFactory creates onnxruntime backed runners.
func ORTRunnerFactory(config providers.Config) RunnerFactory {
	return func(graph []byte, opts model.Options) (Runner, error) {
		return providers.NewSession(config, providers.NewSessionArgs{
			ONNX:    graph,
			Inputs:  opts.Inputs,
			Outputs: opts.Outputs,
		})
	}
}

// Loader builds model handles from remote weights.
type Loader struct {
	weights   WeightsSource
	newRunner RunnerFactory
	nms       *postprocess.NMSConfig
	logger    common.Logger
}

// LoaderOptions configure a Loader.
type LoaderOptions struct {
	// NMS overrides the suppression settings of architectures that apply NMS.
	NMS *postprocess.NMSConfig
	// Logger receives load progress. Nil discards it.
	Logger common.Logger
}

// NewLoader creates a loader.
//
// Arguments:
//   - weights: Where weights are downloaded from.
//   - newRunner: Creates the runner for a downloaded graph.
//   - options: Optional settings.
//
// Returns:
//   - *Loader: The loader.
func NewLoader(weights WeightsSource, newRunner RunnerFactory, options LoaderOptions) *Loader {
	logger := options.Logger
	if logger == nil {
		logger = common.NopLogger{}
	}
	return &Loader{weights: weights, newRunner: newRunner, nms: options.NMS, logger: logger}
}

// Load downloads weightsURL and builds a handle for kind with classCount classes.
//
// Arguments:
//   - ctx: Request context.
//   - kind: The architecture.
//   - classCount: The number of output classes including background.
//   - weightsURL: Where the raw .onnx or a .zip holding one is served.
//
// Returns:
//   - *Handle: The ready-to-infer handle.
//   - error: A ConfigurationError for a bad URL or arguments, a NetworkError for a failed
//     download, an InferenceError when the graph cannot be deserialized.
func (l *Loader) Load(ctx context.Context, kind model.Kind, classCount int, weightsURL string) (*Handle, error) {
	if weightsURL == "" {
		return nil, common.ConfigurationError("load model", errors.Errorf("no weights url for %s", kind))
	}
	if _, err := images.ValidateURL(weightsURL); err != nil {
		return nil, common.ConfigurationError("load model", err)
	}

	m, err := models.NewModel(model.NewModelArgs{Kind: kind, NumClasses: classCount, NMS: l.nms})
	if err != nil {
		return nil, common.ConfigurationError("load model", err)
	}

	l.logger.Printf("downloading %s weights from %s", kind, weightsURL)
	data, err := l.weights.FetchWeights(ctx, weightsURL)
	if err != nil {
		if common.KindOf(err) == common.KindUnknown {
			err = common.NetworkError("fetch weights", err)
		}
		return nil, err
	}

	graph, err := util.ExtractONNX(data)
	if err != nil {
		return nil, common.InferenceError("deserialize weights", err)
	}

	runner, err := l.newRunner(graph, m.Options())
	if err != nil {
		return nil, common.InferenceError("create session", err)
	}

	l.logger.Printf("loaded %s (%d classes, %d bytes)", kind, classCount, len(graph))
	return NewHandle(Key{Kind: kind, WeightsURL: weightsURL}, m, runner), nil
}
