package config

import (
	"fmt"

	"github.com/MANISPIN/align-images-for-lenticular/internal/detector"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
	"github.com/MANISPIN/align-images-for-lenticular/internal/models"
	"github.com/MANISPIN/align-images-for-lenticular/internal/rotation"
)

// Config is the complete application configuration. It is assembled from
// defaults, a config file, environment variables and command-line flags, in
// increasing priority.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains alignment pipeline settings.
type PipelineConfig struct {
	// Feature detector / matcher settings
	Detector detector.Config `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Correspondence filter settings
	Filter match.FilterConfig `mapstructure:"filter" yaml:"filter" json:"filter"`

	// Rotation search settings
	Rotation rotation.Config `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
}

// OutputConfig contains export settings.
type OutputConfig struct {
	// CropToCommon crops exported frames to the area covered by every
	// aligned frame.
	CropToCommon bool `mapstructure:"crop_to_common" yaml:"crop_to_common" json:"crop_to_common"`

	// Atlas settings for contact-sheet previews.
	AtlasColumns    int `mapstructure:"atlas_columns" yaml:"atlas_columns" json:"atlas_columns"`
	AtlasThumbWidth int `mapstructure:"atlas_thumb_width" yaml:"atlas_thumb_width" json:"atlas_thumb_width"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns the configuration used when no file, environment
// variable or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		ModelsDir: models.GetModelsDir(""),
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Detector: detector.DefaultConfig(),
			Filter:   match.DefaultFilterConfig(),
			Rotation: rotation.DefaultConfig(),
		},
		Output: OutputConfig{
			CropToCommon:    false,
			AtlasColumns:    4,
			AtlasThumbWidth: 320,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     200,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}

	if err := c.Pipeline.Rotation.Validate(); err != nil {
		return fmt.Errorf("pipeline.rotation: %w", err)
	}
	if c.Pipeline.Filter.DistanceCap <= 0 {
		return fmt.Errorf("pipeline.filter.distance_cap must be positive, got %g", c.Pipeline.Filter.DistanceCap)
	}
	if c.Pipeline.Filter.MedianFactor <= 0 {
		return fmt.Errorf("pipeline.filter.median_factor must be positive, got %g", c.Pipeline.Filter.MedianFactor)
	}
	if c.Pipeline.Filter.SigmaFactor <= 0 {
		return fmt.Errorf("pipeline.filter.sigma_factor must be positive, got %g", c.Pipeline.Filter.SigmaFactor)
	}

	if c.Output.AtlasColumns <= 0 {
		return fmt.Errorf("output.atlas_columns must be positive, got %d", c.Output.AtlasColumns)
	}
	if c.Output.AtlasThumbWidth <= 0 {
		return fmt.Errorf("output.atlas_thumb_width must be positive, got %d", c.Output.AtlasThumbWidth)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("server.timeout_sec must be positive, got %d", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %d", c.Server.ShutdownTimeout)
	}

	return nil
}
