// Package config loads application configuration from files, environment
// variables and flags through a single viper instance, so command-line
// bindings and file values resolve through one priority chain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "lenticular"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LENTICULAR"
)

// Loader resolves configuration from the standard sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader backed by the global viper instance, so cobra
// flag bindings made elsewhere take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load resolves configuration from the search paths, environment and
// defaults, then validates it. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile resolves configuration from a specific file. Unlike Load, the
// file must exist.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Set overrides a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/lenticular")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "lenticular"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "lenticular"))
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults seeds viper with DefaultConfig so unset keys resolve to the
// same values the structs default to.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	// Global settings
	l.v.SetDefault("models_dir", defaults.ModelsDir)
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	// Pipeline defaults
	l.v.SetDefault("pipeline.detector.model_path", defaults.Pipeline.Detector.ModelPath)
	l.v.SetDefault("pipeline.detector.use_server_model", defaults.Pipeline.Detector.UseServerModel)
	l.v.SetDefault("pipeline.detector.max_image_size", defaults.Pipeline.Detector.MaxImageSize)
	l.v.SetDefault("pipeline.detector.max_keypoints", defaults.Pipeline.Detector.MaxKeypoints)
	l.v.SetDefault("pipeline.detector.score_threshold", defaults.Pipeline.Detector.ScoreThreshold)
	l.v.SetDefault("pipeline.detector.ratio_threshold", defaults.Pipeline.Detector.RatioThreshold)
	l.v.SetDefault("pipeline.detector.distance_scale", defaults.Pipeline.Detector.DistanceScale)
	l.v.SetDefault("pipeline.detector.num_threads", defaults.Pipeline.Detector.NumThreads)
	l.v.SetDefault("pipeline.detector.gpu.use_gpu", defaults.Pipeline.Detector.GPU.UseGPU)
	l.v.SetDefault("pipeline.detector.gpu.device_id", defaults.Pipeline.Detector.GPU.DeviceID)
	l.v.SetDefault("pipeline.detector.gpu.gpu_mem_limit", defaults.Pipeline.Detector.GPU.GPUMemLimit)

	l.v.SetDefault("pipeline.filter.distance_cap", defaults.Pipeline.Filter.DistanceCap)
	l.v.SetDefault("pipeline.filter.median_factor", defaults.Pipeline.Filter.MedianFactor)
	l.v.SetDefault("pipeline.filter.sigma_factor", defaults.Pipeline.Filter.SigmaFactor)

	l.v.SetDefault("pipeline.rotation.min_angle", defaults.Pipeline.Rotation.MinAngle)
	l.v.SetDefault("pipeline.rotation.max_angle", defaults.Pipeline.Rotation.MaxAngle)
	l.v.SetDefault("pipeline.rotation.step", defaults.Pipeline.Rotation.Step)

	// Output defaults
	l.v.SetDefault("output.crop_to_common", defaults.Output.CropToCommon)
	l.v.SetDefault("output.atlas_columns", defaults.Output.AtlasColumns)
	l.v.SetDefault("output.atlas_thumb_width", defaults.Output.AtlasThumbWidth)

	// Server defaults
	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
}
