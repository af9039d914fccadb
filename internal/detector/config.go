// Package detector implements the feature-detector/matcher collaborator of
// the alignment pipeline: an ONNX-hosted keypoint-and-descriptor network plus
// brute-force mutual nearest-neighbor descriptor matching. The alignment core
// only ever sees this package through its DetectAndMatch method.
package detector

import (
	"errors"
	"fmt"
	"os"

	"github.com/MANISPIN/align-images-for-lenticular/internal/models"
	"github.com/MANISPIN/align-images-for-lenticular/internal/onnx"
)

// Config holds detector and matcher settings.
type Config struct {
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`

	// UseServerModel picks the heavier model variant.
	UseServerModel bool `mapstructure:"use_server_model" yaml:"use_server_model"`

	// MaxImageSize bounds the longer image side before inference; detected
	// keypoints are mapped back to original pixel coordinates.
	MaxImageSize int `mapstructure:"max_image_size" yaml:"max_image_size"`

	// MaxKeypoints caps how many keypoints are kept per image, strongest
	// first.
	MaxKeypoints int `mapstructure:"max_keypoints" yaml:"max_keypoints"`

	// ScoreThreshold is the minimum heatmap confidence for a keypoint.
	ScoreThreshold float32 `mapstructure:"score_threshold" yaml:"score_threshold"`

	// RatioThreshold is the Lowe ratio test bound: a match is kept when
	// best/secondBest is below it.
	RatioThreshold float64 `mapstructure:"ratio_threshold" yaml:"ratio_threshold"`

	// DistanceScale maps unit-descriptor L2 distances into the range the
	// correspondence filter's constants are tuned for.
	DistanceScale float64 `mapstructure:"distance_scale" yaml:"distance_scale"`

	NumThreads int            `mapstructure:"num_threads" yaml:"num_threads"`
	GPU        onnx.GPUConfig `mapstructure:"gpu" yaml:"gpu"`
}

// DefaultConfig returns detector defaults with the mobile model.
func DefaultConfig() Config {
	return Config{
		ModelPath:      models.GetKeypointModelPath("", false),
		MaxImageSize:   1280,
		MaxKeypoints:   1000,
		ScoreThreshold: 0.015,
		RatioThreshold: 0.85,
		DistanceScale:  100,
		GPU:            onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath re-resolves the model path against a models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetKeypointModelPath(modelsDir, c.UseServerModel)
}

func validateConfig(c Config) error {
	if c.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("max image size must be positive, got %d", c.MaxImageSize)
	}
	if c.MaxKeypoints <= 0 {
		return fmt.Errorf("max keypoints must be positive, got %d", c.MaxKeypoints)
	}
	if c.RatioThreshold <= 0 || c.RatioThreshold > 1 {
		return fmt.Errorf("ratio threshold must be in (0, 1], got %g", c.RatioThreshold)
	}
	if c.DistanceScale <= 0 {
		return fmt.Errorf("distance scale must be positive, got %g", c.DistanceScale)
	}
	return nil
}

func validateModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", path)
		}
		return fmt.Errorf("cannot access model file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}
