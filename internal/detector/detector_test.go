package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MANISPIN/align-images-for-lenticular/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(models.EnvModelsDir, "")
	cfg := DefaultConfig()

	assert.Equal(t, models.GetKeypointModelPath("", false), cfg.ModelPath)
	assert.Equal(t, 1280, cfg.MaxImageSize)
	assert.Equal(t, 1000, cfg.MaxKeypoints)
	assert.InDelta(t, 0.85, cfg.RatioThreshold, 1e-9)
	assert.InDelta(t, 100.0, cfg.DistanceScale, 1e-9)
	assert.False(t, cfg.GPU.UseGPU)
}

func TestUpdateModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseServerModel = true
	cfg.UpdateModelPath("/opt/models")
	assert.Equal(t, models.GetKeypointModelPath("/opt/models", true), cfg.ModelPath)
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model path", func(c *Config) { c.ModelPath = "" }},
		{"bad image size", func(c *Config) { c.MaxImageSize = 0 }},
		{"bad keypoint cap", func(c *Config) { c.MaxKeypoints = -1 }},
		{"bad ratio", func(c *Config) { c.RatioThreshold = 1.5 }},
		{"bad distance scale", func(c *Config) { c.DistanceScale = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			require.Error(t, validateConfig(cfg))
		})
	}

	require.NoError(t, validateConfig(DefaultConfig()))
}

func TestNewDetector_MissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "nonexistent/keypoint.onnx"

	d, err := NewDetector(cfg)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "model file not found")
}

func TestNewDetector_EmptyModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = ""

	d, err := NewDetector(cfg)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "model path cannot be empty")
}

func TestPickKeypoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreThreshold = 0.1
	cfg.MaxKeypoints = 10

	// 5x5 heatmap with two isolated peaks and one below threshold.
	w, h := 5, 5
	scores := make([]float32, w*h)
	scores[1*w+1] = 0.9
	scores[3*w+3] = 0.5
	scores[2*w+3] = 0.05

	kps := pickKeypoints(scores, h, w, cfg)
	require.Len(t, kps, 2)
	assert.InDelta(t, 1.0, kps[0].X, 1e-9)
	assert.InDelta(t, 1.0, kps[0].Y, 1e-9)
	assert.InDelta(t, 0.9, kps[0].Score, 1e-6)
	assert.InDelta(t, 3.0, kps[1].X, 1e-9)
}

func TestPickKeypoints_CapKeepsStrongest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreThreshold = 0.1
	cfg.MaxKeypoints = 1

	w, h := 7, 3
	scores := make([]float32, w*h)
	scores[1*w+1] = 0.3
	scores[1*w+5] = 0.8

	kps := pickKeypoints(scores, h, w, cfg)
	require.Len(t, kps, 1)
	assert.InDelta(t, 5.0, kps[0].X, 1e-9)
}

func TestPickKeypoints_NonMaximaSuppressed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreThreshold = 0.1

	// Adjacent cells: only the larger survives the 3x3 local-max check.
	w, h := 5, 3
	scores := make([]float32, w*h)
	scores[1*w+2] = 0.6
	scores[1*w+3] = 0.4

	kps := pickKeypoints(scores, h, w, cfg)
	require.Len(t, kps, 1)
	assert.InDelta(t, 2.0, kps[0].X, 1e-9)
}

func TestHeatmapDims(t *testing.T) {
	h, w, err := heatmapDims([]int64{1, 60, 80})
	require.NoError(t, err)
	assert.Equal(t, 60, h)
	assert.Equal(t, 80, w)

	h, w, err = heatmapDims([]int64{1, 1, 30, 40})
	require.NoError(t, err)
	assert.Equal(t, 30, h)
	assert.Equal(t, 40, w)

	_, _, err = heatmapDims([]int64{60, 80})
	require.Error(t, err)
}

func TestSampleDescriptor_Normalized(t *testing.T) {
	// Two cells, depth 2: cell (0,1) holds (3, 4) across the planes.
	data := []float32{
		0, 3, // plane 0
		0, 4, // plane 1
	}
	d := sampleDescriptor(data, 2, 1, 2, 0, 1)
	require.Len(t, d, 2)
	assert.InDelta(t, 0.6, float64(d[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(d[1]), 1e-6)

	zero := sampleDescriptor(data, 2, 1, 2, 0, 0)
	assert.InDelta(t, 0.0, float64(zero[0]), 1e-9)
}
