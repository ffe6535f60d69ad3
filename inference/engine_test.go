package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models"
	"github.com/nvr-ai/detect-demo/models/model"
)

func testImage(w, h int) images.Image {
	img := images.NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	return img
}

func handleFor(t *testing.T, kind model.Kind, classes int, r *MockRunner) *Handle {
	t.Helper()
	m, err := models.NewModel(model.NewModelArgs{Kind: kind, NumClasses: classes})
	require.NoError(t, err)
	return NewHandle(Key{Kind: kind, WeightsURL: "https://example.com/w.zip"}, m, r)
}

func TestPredictThresholdScenario(t *testing.T) {
	// Two confident objects and one weak one.
	runner := &MockRunner{outputs: rcnnOutputs(0.95, 0.3, 0.92)}
	h := handleFor(t, model.KindFasterRCNN, 2, runner)
	p := NewPredictor(PredictorOptions{})
	img := testImage(64, 48)

	tests := []struct {
		detection float32
		want      int
	}{
		{0.5, 2},
		{0.2, 3},
		{0.0, 3},
		{0.95, 1},
		{1.0, 0},
	}

	for _, tt := range tests {
		_, pred, err := p.Predict(context.Background(), h, img, Thresholds{Detection: tt.detection, Mask: 0.5})
		require.NoError(t, err)
		assert.Len(t, pred.Instances, tt.want, "detection threshold %.2f", tt.detection)
	}
}

func TestPredictOrderAndDisplay(t *testing.T) {
	runner := &MockRunner{outputs: rcnnOutputs(0.6, 0.9)}
	h := handleFor(t, model.KindFasterRCNN, 2, runner)
	img := testImage(20, 10)

	display, pred, err := NewPredictor(PredictorOptions{}).Predict(context.Background(), h, img, DefaultThresholds())
	require.NoError(t, err)

	require.Len(t, pred.Instances, 2)
	assert.Equal(t, float32(0.9), pred.Instances[0].Score)
	assert.False(t, pred.HasMasks)
	assert.Equal(t, 20, pred.Width)

	// torchvision graphs take a single [C,H,W] image.
	assert.Equal(t, []int64{3, 10, 20}, runner.lastShape)

	// The display image is the denormalized input.
	assert.Equal(t, img.Width, display.Width)
	assert.Equal(t, img.Height, display.Height)
	for i := range img.Pix {
		require.InDelta(t, img.Pix[i], display.Pix[i], 1, "pixel byte %d", i)
	}
}

func TestPredictMasks(t *testing.T) {
	out := rcnnOutputs(0.9)
	out["masks"] = model.RawTensor{
		Shape:   []int64{1, 1, 2, 2},
		Float32: []float32{0.5, 0.49, 0.51, 1.0},
	}
	runner := &MockRunner{outputs: out}
	h := handleFor(t, model.KindMaskRCNN, 2, runner)
	p := NewPredictor(PredictorOptions{})

	_, pred, err := p.Predict(context.Background(), h, testImage(2, 2), Thresholds{Detection: 0.5, Mask: 0.5})
	require.NoError(t, err)
	require.Len(t, pred.Instances, 1)
	assert.True(t, pred.HasMasks)
	require.NotNil(t, pred.Instances[0].Mask)

	// A probability equal to the mask threshold is included.
	assert.Equal(t, []bool{true, false, true, true}, pred.Instances[0].Mask.Bits)
}

func TestPredictEfficientDetResizesToInput(t *testing.T) {
	runner := &MockRunner{outputs: model.RawOutputs{
		"detections": {Shape: []int64{1, 1, 6}, Float32: []float32{10, 10, 50, 50, 0.8, 3}},
	}}
	h := handleFor(t, model.KindEfficientDet, 5, runner)

	display, pred, err := NewPredictor(PredictorOptions{MaxSide: 100}).Predict(
		context.Background(), h, testImage(300, 200), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 512, 512}, runner.lastShape)
	assert.Equal(t, 512, display.Width)
	assert.Equal(t, 512, pred.Height)
	assert.Len(t, pred.Instances, 1)
}

func TestPredictMaxSide(t *testing.T) {
	runner := &MockRunner{outputs: rcnnOutputs()}
	h := handleFor(t, model.KindFasterRCNN, 2, runner)

	display, _, err := NewPredictor(PredictorOptions{MaxSide: 50}).Predict(
		context.Background(), h, testImage(200, 100), DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 25, 50}, runner.lastShape)
	assert.Equal(t, 50, display.Width)
}

func TestPredictErrors(t *testing.T) {
	p := NewPredictor(PredictorOptions{})
	img := testImage(4, 4)

	tests := []struct {
		name       string
		handle     *Handle
		img        images.Image
		thresholds Thresholds
		want       common.ErrorKind
	}{
		{
			name:       "detection threshold above one",
			handle:     handleFor(t, model.KindFasterRCNN, 2, &MockRunner{}),
			img:        img,
			thresholds: Thresholds{Detection: 1.01, Mask: 0.5},
			want:       common.KindConfiguration,
		},
		{
			name:       "negative mask threshold",
			handle:     handleFor(t, model.KindFasterRCNN, 2, &MockRunner{}),
			img:        img,
			thresholds: Thresholds{Detection: 0.5, Mask: -0.1},
			want:       common.KindConfiguration,
		},
		{
			name:       "forward pass fails",
			handle:     handleFor(t, model.KindFasterRCNN, 2, &MockRunner{err: errors.New("bad input shape")}),
			img:        img,
			thresholds: DefaultThresholds(),
			want:       common.KindInference,
		},
		{
			name:       "class count mismatch",
			handle:     handleFor(t, model.KindFasterRCNN, 2, &MockRunner{outputs: rcnnOutputsClass(7)}),
			img:        img,
			thresholds: DefaultThresholds(),
			want:       common.KindInference,
		},
		{
			name:       "no handle",
			handle:     nil,
			img:        img,
			thresholds: DefaultThresholds(),
			want:       common.KindInference,
		},
		{
			name:       "empty image",
			handle:     handleFor(t, model.KindFasterRCNN, 2, &MockRunner{}),
			img:        images.Image{},
			thresholds: DefaultThresholds(),
			want:       common.KindInference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pred, err := p.Predict(context.Background(), tt.handle, tt.img, tt.thresholds)
			require.Error(t, err)
			assert.Equal(t, tt.want, common.KindOf(err), err.Error())
			assert.Empty(t, pred.Instances)
		})
	}
}

func rcnnOutputsClass(class int64) model.RawOutputs {
	out := rcnnOutputs(0.9)
	out["labels"] = model.RawTensor{Shape: []int64{1}, Int64: []int64{class}}
	return out
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.NoError(t, Thresholds{Detection: 0, Mask: 1}.Validate())
	assert.Error(t, Thresholds{Detection: float32NaN(), Mask: 0.5}.Validate())
}

func float32NaN() float32 {
	var zero float32
	return zero / zero
}
