package onnx

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/yalue/onnxruntime_go"
)

// GPUConfig holds CUDA acceleration settings for detector sessions.
type GPUConfig struct {
	UseGPU      bool   `mapstructure:"use_gpu" yaml:"use_gpu"`
	DeviceID    int    `mapstructure:"device_id" yaml:"device_id"`
	GPUMemLimit uint64 `mapstructure:"gpu_mem_limit" yaml:"gpu_mem_limit"` // bytes, 0 = unlimited
}

// DefaultGPUConfig returns CPU-only defaults.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{}
}

// ConfigureSessionForGPU appends a CUDA execution provider to the session
// options when GPU use is requested. Runs on CPU when not.
func ConfigureSessionForGPU(opts *onnxruntime_go.SessionOptions, cfg GPUConfig) error {
	if !cfg.UseGPU {
		return nil
	}

	cudaOpts, err := onnxruntime_go.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() {
		if destroyErr := cudaOpts.Destroy(); destroyErr != nil {
			slog.Warn("failed to destroy CUDA provider options", "error", destroyErr)
		}
	}()

	settings := map[string]string{
		"device_id": strconv.Itoa(cfg.DeviceID),
	}
	if cfg.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = strconv.FormatUint(cfg.GPUMemLimit, 10)
	}
	if err := cudaOpts.Update(settings); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}

	if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("failed to append CUDA execution provider: %w", err)
	}
	return nil
}
