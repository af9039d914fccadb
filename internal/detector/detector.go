package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/yalue/onnxruntime_go"

	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
	"github.com/MANISPIN/align-images-for-lenticular/internal/onnx"
	"github.com/MANISPIN/align-images-for-lenticular/internal/utils"
)

// Detector runs the keypoint model. The model takes a [1,1,H,W] grayscale
// tensor and produces a confidence heatmap plus a dense descriptor grid at
// 1/8 resolution, SuperPoint-style.
type Detector struct {
	config     Config
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo []onnxruntime_go.InputOutputInfo
	mu         sync.RWMutex
}

// Features is the per-image detection result: keypoints in original pixel
// coordinates with their unit-normalized descriptors, index-aligned.
type Features struct {
	KeyPoints   []match.KeyPoint
	Descriptors [][]float32
}

// NewDetector creates a detector with the given configuration, loading the
// model and initializing the ONNX runtime.
func NewDetector(config Config) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := validateModelFile(config.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("initializing keypoint detector",
		"model_path", config.ModelPath,
		"gpu_enabled", config.GPU.UseGPU,
		"max_image_size", config.MaxImageSize,
		"max_keypoints", config.MaxKeypoints)

	if err := onnx.InitEnvironment(); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) != 2 {
		return nil, fmt.Errorf("expected 2 model outputs (scores, descriptors), got %d", len(outputs))
	}

	session, err := createSession(config, inputs[0], outputs)
	if err != nil {
		return nil, err
	}

	return &Detector{
		config:     config,
		session:    session,
		inputInfo:  inputs[0],
		outputInfo: outputs,
	}, nil
}

func createSession(config Config, input onnxruntime_go.InputOutputInfo,
	outputs []onnxruntime_go.InputOutputInfo,
) (*onnxruntime_go.DynamicAdvancedSession, error) {
	opts, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			slog.Warn("failed to destroy session options", "error", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(opts, config.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}
	if config.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(config.ModelPath,
		[]string{input.Name}, []string{outputs[0].Name, outputs[1].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}

// GetConfig returns a copy of the detector's configuration.
func (d *Detector) GetConfig() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Close releases the ONNX session. The runtime environment itself is shared
// and left alone.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			slog.Warn("failed to destroy detector session", "error", err)
		}
		d.session = nil
	}
	return nil
}

// Detect runs keypoint inference on one image.
func (d *Detector) Detect(img image.Image) (*Features, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}

	resized, scale := utils.FitWithin(img, d.config.MaxImageSize)
	data, w, h := utils.GrayFloats(resized)
	tensor, err := onnx.NewGrayTensor(data, h, w)
	if err != nil {
		return nil, fmt.Errorf("failed to build input tensor: %w", err)
	}

	scores, descriptors, err := d.runInference(tensor)
	if err != nil {
		return nil, err
	}
	defer destroyValues(scores, descriptors)

	feats, err := decodeFeatures(scores, descriptors, d.config)
	if err != nil {
		return nil, err
	}

	// Map keypoints back into the original image's pixel space.
	if scale != 1.0 {
		for i := range feats.KeyPoints {
			feats.KeyPoints[i].X /= scale
			feats.KeyPoints[i].Y /= scale
		}
	}

	slog.Debug("keypoints detected", "count", len(feats.KeyPoints),
		"width", w, "height", h, "scale", scale)
	return feats, nil
}

func (d *Detector) runInference(tensor onnx.Tensor) (onnxruntime_go.Value, onnxruntime_go.Value, error) {
	if err := tensor.Verify(); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}

	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()
	if session == nil {
		return nil, nil, errors.New("detector session is closed")
	}

	input, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer destroyValues(input)

	outputs := []onnxruntime_go.Value{nil, nil}
	if err := session.Run([]onnxruntime_go.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	return outputs[0], outputs[1], nil
}

func destroyValues(values ...onnxruntime_go.Value) {
	for _, v := range values {
		if v == nil {
			continue
		}
		if err := v.Destroy(); err != nil {
			slog.Warn("failed to destroy tensor", "error", err)
		}
	}
}
