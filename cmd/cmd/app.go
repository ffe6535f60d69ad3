package cmd

import (
	"os"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/config"
	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/inference"
	"github.com/nvr-ai/detect-demo/visualize"
)

// app is the wired pipeline shared by the commands.
type app struct {
	cfg        config.Config
	table      *config.Table
	models     *inference.Models
	controller *controller.Controller
	logger     common.Logger
}

func newApp(prefix string) (*app, error) {
	logger := common.NewLogger(os.Stderr, prefix)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	weights := &inference.HTTPWeights{
		Fetcher: images.NewFetcher(nil, images.FetcherOptions{
			Timeout:   cfg.Inference.WeightsTimeout,
			UserAgent: cfg.Fetch.UserAgent,
		}),
		MaxBytes: cfg.Inference.MaxWeightBytes,
	}
	nms := cfg.Inference.NMS
	loader := inference.NewLoader(weights, inference.ORTRunnerFactory(cfg.Inference.Provider), inference.LoaderOptions{
		NMS:    &nms,
		Logger: logger,
	})

	// One slot per dataset, so configured models are never evicted.
	cache, err := inference.NewModelCache(table.Len(), logger)
	if err != nil {
		return nil, err
	}
	models := inference.NewModels(cache, loader)

	return &app{
		cfg:    cfg,
		table:  table,
		models: models,
		controller: &controller.Controller{
			Datasets:  table,
			Models:    models,
			Fetcher:   images.NewFetcher(nil, cfg.Fetch),
			Predictor: inference.NewPredictor(inference.PredictorOptions{MaxSide: cfg.Inference.MaxSide}),
			Render:    visualize.Render,
			Logger:    logger,
		},
		logger: logger,
	}, nil
}

func (a *app) Close() {
	a.models.Cache().Purge()
}
