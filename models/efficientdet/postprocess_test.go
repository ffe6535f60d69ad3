package efficientdet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detect-demo/models/model"
)

func TestNewModelDefaults(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{NumClasses: 5})
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, model.KindEfficientDet, opts.Kind)
	assert.Equal(t, DefaultInputSize, opts.InputSize)
	assert.Equal(t, 4, opts.InputRank)
	require.NotNil(t, opts.NMS)
	assert.True(t, opts.NMS.ClassAware)
}

func TestDecode(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{NumClasses: 5})
	require.NoError(t, err)

	out := model.RawOutputs{
		"detections": {Shape: []int64{1, 4, 6}, Float32: []float32{
			10, 10, 100, 100, 0.6, 2,
			12, 12, 100, 100, 0.9, 2, // overlaps the first, same class
			300, 300, 600, 600, 0.7, 4, // clamped to 512
			0, 0, 0, 0, 0, 0, // padding
		}},
	}

	got, err := m.Decode(out, 512, 512)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, float32(0.9), got[0].Score)
	assert.Equal(t, 2, got[0].Class)
	assert.Equal(t, float32(0.7), got[1].Score)
	assert.Equal(t, float32(512), got[1].Box.X2)
}

func TestDecodeKeepsZeroScoreRows(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{NumClasses: 5})
	require.NoError(t, err)

	out := model.RawOutputs{
		"detections": {Shape: []int64{1, 3, 6}, Float32: []float32{
			20, 20, 80, 80, 0, 1,
			0, 0, 0, 0, 0, 0, // padding
			5, 5, 9, 9, -1, 1, // padding
		}},
	}

	got, err := m.Decode(out, 512, 512)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float32(0), got[0].Score)
	assert.Equal(t, float32(80), got[0].Box.X2)
}

func TestDecodeErrors(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{NumClasses: 2})
	require.NoError(t, err)

	_, err = m.Decode(model.RawOutputs{"detections": {Shape: []int64{1, 5}, Float32: make([]float32, 5)}}, 512, 512)
	assert.Error(t, err, "rows not multiple of six")

	_, err = m.Decode(model.RawOutputs{"detections": {Shape: []int64{1, 6}, Float32: []float32{0, 0, 1, 1, 0.9, 7}}}, 512, 512)
	assert.Error(t, err, "class outside class map")

	_, err = m.Decode(model.RawOutputs{}, 512, 512)
	assert.Error(t, err, "missing output")
}
