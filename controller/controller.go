// Package controller - Runs one user interaction through fetch, inference and rendering.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/config"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/inference"
	"github.com/nvr-ai/detect-demo/models"
	"github.com/nvr-ai/detect-demo/models/postprocess"
	"github.com/nvr-ai/detect-demo/profiler"
)

// Request is one submitted interaction. It is not modified by the pipeline.
type Request struct {
	// URL is the image location, possibly surrounded by pasted text.
	URL string `json:"url"`
	// Dataset names the dataset/model pair.
	Dataset string `json:"dataset"`
	inference.Thresholds
	// BoxesOnly skips mask overlays.
	BoxesOnly bool `json:"boxes_only"`
}

// Render is the result of a successful interaction.
type Render struct {
	Request    Request
	PNG        []byte
	Detections []common.BoundingBox
	Width      int
	Height     int
	HasMasks   bool
	Elapsed    time.Duration
	Stages     []profiler.Stage
}

// Datasets resolves a selector entry.
type Datasets interface {
	Lookup(name string) (config.Dataset, error)
}

// ImageFetcher retrieves and decodes an image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (images.Image, error)
}

// Predictor runs a loaded model over an image.
type Predictor interface {
	Predict(
		ctx context.Context,
		handle *inference.Handle,
		img images.Image,
		thresholds inference.Thresholds,
	) (images.Image, postprocess.Prediction, error)
}

// RenderFunc draws a prediction and encodes the raster.
type RenderFunc func(
	display images.Image,
	pred postprocess.Prediction,
	classMap *models.ClassMap,
	boxesOnly bool,
) ([]byte, error)

// Controller wires the pipeline stages together.
type Controller struct {
	Datasets  Datasets
	Models    inference.ModelLoader
	Fetcher   ImageFetcher
	Predictor Predictor
	Render    RenderFunc
	Logger    common.Logger
}

// Run executes req for session.
//
// The interaction either completes and replaces session.Last, or returns exactly one
// classified error and leaves session.Last unchanged.
//
// Arguments:
//   - ctx: Request context.
//   - session: The session the interaction belongs to.
//   - req: The submitted request.
//
// Returns:
//   - *Render: The new render.
//   - error: A *common.Error of kind Configuration, Network, Decode or Inference.
func (c *Controller) Run(ctx context.Context, session *Session, req Request) (*Render, error) {
	timer := profiler.NewStageTimer()
	if err := c.check(); err != nil {
		return nil, err
	}
	if session != nil {
		session.Remember(req)
	}

	r, err := c.run(ctx, req, timer)
	if err != nil {
		c.logf("interaction failed (dataset %q): %v", req.Dataset, err)
		return nil, err
	}
	r.Elapsed = timer.Elapsed()
	r.Stages = timer.Stages()

	if session != nil {
		session.commit(r)
	}
	c.logf("rendered %d detections for %q in %s (%s)", len(r.Detections), req.Dataset, r.Elapsed, profiler.Summary(r.Stages))
	return r, nil
}

func (c *Controller) run(ctx context.Context, req Request, timer *profiler.StageTimer) (*Render, error) {
	dataset, err := c.Datasets.Lookup(req.Dataset)
	if err != nil {
		return nil, err
	}
	if err := req.Thresholds.Validate(); err != nil {
		return nil, err
	}

	done := timer.StartOperation(profiler.StageFetch)
	img, err := c.Fetcher.Fetch(ctx, images.CleanURL(req.URL))
	done()
	if err != nil {
		return nil, err
	}

	done = timer.StartOperation(profiler.StageLoad)
	handle, err := c.Load(ctx, dataset)
	done()
	if err != nil {
		return nil, err
	}

	done = timer.StartOperation(profiler.StagePredict)
	display, pred, err := c.Predictor.Predict(ctx, handle, img, req.Thresholds)
	done()
	if err != nil {
		return nil, err
	}

	done = timer.StartOperation(profiler.StageRender)
	png, err := c.Render(display, pred, dataset.Classes, req.BoxesOnly)
	done()
	if err != nil {
		return nil, common.InferenceError("render", err)
	}

	return &Render{
		Request:    req,
		PNG:        png,
		Detections: dataset.Classes.Annotate(pred),
		Width:      display.Width,
		Height:     display.Height,
		HasMasks:   pred.HasMasks,
	}, nil
}

// Load returns the model handle of dataset, checking it was built for the dataset's class map.
func (c *Controller) Load(ctx context.Context, dataset config.Dataset) (*inference.Handle, error) {
	handle, err := c.Models.Load(ctx, dataset.Kind, dataset.Classes.Len(), dataset.WeightsURL)
	if err != nil {
		return nil, err
	}
	if n := handle.Options().NumClasses; n != dataset.Classes.Len() {
		return nil, common.InferenceError("load model", fmt.Errorf(
			"model %s has %d classes, dataset %q has %d", handle.Key(), n, dataset.Name, dataset.Classes.Len()))
	}
	return handle, nil
}

// Warm loads the model of every named dataset so the first request does not pay for it.
func (c *Controller) Warm(ctx context.Context, names ...string) error {
	if err := c.check(); err != nil {
		return err
	}
	for _, name := range names {
		dataset, err := c.Datasets.Lookup(name)
		if err != nil {
			return err
		}
		if _, err := c.Load(ctx, dataset); err != nil {
			return err
		}
		c.logf("warmed %s", name)
	}
	return nil
}

func (c *Controller) check() error {
	if c.Datasets == nil || c.Models == nil || c.Fetcher == nil || c.Predictor == nil || c.Render == nil {
		return common.ConfigurationError("controller", fmt.Errorf("controller is not fully wired"))
	}
	return nil
}

func (c *Controller) logf(format string, v ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}
