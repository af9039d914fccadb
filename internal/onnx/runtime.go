// Package onnx wraps the ONNX Runtime environment and tensor plumbing used by
// the keypoint detector.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yalue/onnxruntime_go"

	"github.com/MANISPIN/align-images-for-lenticular/internal/models"
)

// EnvLibraryPath overrides the ONNX Runtime shared library location.
const EnvLibraryPath = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported OS for ONNX Runtime: %s", runtime.GOOS)
	}
}

func trySetLibraryPath(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	onnxruntime_go.SetSharedLibraryPath(path)
	return true
}

// SetLibraryPath points onnxruntime_go at a usable shared library: the
// environment override first, then a project-relative checkout.
func SetLibraryPath() error {
	if env := os.Getenv(EnvLibraryPath); env != "" {
		if trySetLibraryPath(env) {
			return nil
		}
		return fmt.Errorf("ONNX Runtime library not found at %s (from %s)", env, EnvLibraryPath)
	}

	libName, err := libraryName()
	if err != nil {
		return err
	}

	root, err := models.FindProjectRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "onnxruntime", "lib", libName)
	if !trySetLibraryPath(path) {
		return fmt.Errorf("ONNX Runtime library not found at %s", path)
	}
	return nil
}

// InitEnvironment sets the library path and initializes the runtime once.
func InitEnvironment() error {
	if err := SetLibraryPath(); err != nil {
		return err
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}

// Tensor is a float32 tensor prepared for ONNX input, row-major NCHW.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewGrayTensor builds a single-image tensor with shape [1, 1, H, W] from
// row-major grayscale data.
func NewGrayTensor(data []float32, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil tensor data")
	}
	if len(data) != h*w {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), h*w)
	}
	return Tensor{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}, nil
}

// Verify checks that data length matches the NCHW shape.
func (t Tensor) Verify() error {
	if len(t.Shape) != 4 {
		return fmt.Errorf("tensor rank %d != 4", len(t.Shape))
	}
	expected := int64(1)
	for i, v := range t.Shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
		expected *= v
	}
	if int64(len(t.Data)) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), expected, t.Shape)
	}
	return nil
}
