// Package config - Application configuration: defaults, YAML file and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/inference"
	"github.com/nvr-ai/detect-demo/inference/providers"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// Environment overrides.
const (
	EnvConfigPath  = "DETECT_DEMO_CONFIG"
	EnvAddr        = "DETECT_DEMO_ADDR"
	EnvLibraryPath = "DETECT_DEMO_ORT_LIBRARY"
	EnvBackend     = "DETECT_DEMO_PROVIDER"
	EnvMaxSide     = "DETECT_DEMO_MAX_SIDE"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr"`
	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration `json:"readTimeout" yaml:"readTimeout"`
	// WriteTimeout bounds a whole response, including a cold model load.
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	// SessionLimit caps the number of live browser sessions.
	SessionLimit int `json:"sessionLimit" yaml:"sessionLimit"`
}

// InferenceConfig configures model loading and prediction.
type InferenceConfig struct {
	// Provider selects the onnxruntime execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
	// MaxSide downsizes native-size inputs; 0 disables it.
	MaxSide int `json:"maxSide" yaml:"maxSide"`
	// NMS configures suppression for architectures that need it.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// MaxWeightBytes caps a downloaded weights archive.
	MaxWeightBytes int64 `json:"maxWeightBytes" yaml:"maxWeightBytes"`
	// WeightsTimeout bounds one weights download.
	WeightsTimeout time.Duration `json:"weightsTimeout" yaml:"weightsTimeout"`
}

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig          `json:"server"    yaml:"server"`
	Fetch     images.FetcherOptions `json:"fetch"     yaml:"fetch"`
	Inference InferenceConfig       `json:"inference" yaml:"inference"`

	// Datasets is the selector table, in display order.
	Datasets []DatasetConfig `json:"datasets" yaml:"datasets"`

	// Samples are the image URLs the shuffle button picks from.
	Samples []string `json:"samples" yaml:"samples"`

	// Defaults are the initial slider positions.
	Defaults inference.Thresholds `json:"defaults" yaml:"defaults"`
}

// DefaultSamples are the sample images offered by the shuffle button.
var DefaultSamples = []string{
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/kids_crossing_street.jpg",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image0.png",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image1.png",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image2.png",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image3.png",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image4.png",
	"https://raw.githubusercontent.com/ai-fast-track/ice-streamlit/master/images/image5.png",
	"https://www.adventisthealth.org/cms/thumbnails/00/1100x506/images/blog/kids_crossing_street.jpg",
	"https://i.cbc.ca/1.5510620.1585229177!/cumulusImage/httpImage/image.jpg_gen/derivatives/16x9_780/toronto-street-scene-covid-19.jpg",
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			SessionLimit: 1024,
		},
		Fetch: images.FetcherOptions{
			Timeout:   images.DefaultFetchTimeout,
			MaxBytes:  images.DefaultMaxBytes,
			MaxPixels: images.DefaultMaxPixels,
			UserAgent: "detect-demo/1.0",
		},
		Inference: InferenceConfig{
			Provider:       providers.DefaultConfig(),
			MaxSide:        1024,
			NMS:            *postprocess.DefaultNMSConfig(),
			MaxWeightBytes: inference.DefaultMaxWeightBytes,
			WeightsTimeout: 10 * time.Minute,
		},
		Datasets: DefaultDatasets(),
		Samples:  append([]string(nil), DefaultSamples...),
		Defaults: inference.DefaultThresholds(),
	}
}

// Load reads the configuration.
//
// Arguments:
//   - path: A YAML file merged over the defaults. Empty uses the defaults alone.
//
// Returns:
//   - Config: The merged configuration with environment overrides applied.
//   - error: A ConfigurationError if the file cannot be read or parsed, or the result is invalid.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, common.ConfigurationError("load config", errors.Wrapf(err, "read %s", path))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, common.ConfigurationError("load config", errors.Wrapf(err, "parse %s", path))
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLibraryPath); ok && v != "" {
		c.Inference.Provider.LibraryPath = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Inference.Provider.Backend = providers.ProviderBackend(v)
	}
	if v, ok := lookup(EnvMaxSide); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return common.ConfigurationError("load config", errors.Wrapf(err, "%s", EnvMaxSide))
		}
		c.Inference.MaxSide = n
	}
	return nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return common.ConfigurationError("config", fmt.Errorf("server.addr is empty"))
	}
	if err := c.Inference.Provider.Validate(); err != nil {
		return common.ConfigurationError("config", err)
	}
	if c.Inference.MaxSide < 0 {
		return common.ConfigurationError("config", fmt.Errorf("inference.maxSide %d is negative", c.Inference.MaxSide))
	}
	if iou := c.Inference.NMS.IoUThreshold; iou <= 0 || iou > 1 {
		return common.ConfigurationError("config", fmt.Errorf("inference.nms.iouThreshold %v outside (0,1]", iou))
	}
	for _, s := range c.Samples {
		if _, err := images.ValidateURL(s); err != nil {
			return common.ConfigurationError("config", errors.Wrap(err, "samples"))
		}
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	_, err := NewTable(c.Datasets)
	return err
}

// Table resolves the dataset table.
func (c Config) Table() (*Table, error) {
	return NewTable(c.Datasets)
}
