// Package models resolves filesystem paths for the ONNX keypoint models the
// feature detector loads at startup.
package models

import (
	"errors"
	"os"
	"path/filepath"
)

// Model filename constants, kept in one place to avoid typos.
const (
	// KeypointMobile is the default keypoint-and-descriptor model, a
	// SuperPoint-style network exported to ONNX.
	KeypointMobile = "keypoint_mobile.onnx"

	// KeypointServer trades speed for denser, more repeatable keypoints.
	KeypointServer = "keypoint_server.onnx"
)

// DefaultModelsDir is the models directory relative to the working directory
// or project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "LENTICULAR_MODELS_DIR"

// GetModelsDir returns the models directory, preferring the explicit
// argument, then the environment, then the default.
func GetModelsDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	return DefaultModelsDir
}

// GetKeypointModelPath returns the path of the keypoint model inside the
// given models directory ("" means resolve the default directory).
func GetKeypointModelPath(modelsDir string, useServer bool) string {
	name := KeypointMobile
	if useServer {
		name = KeypointServer
	}
	return filepath.Join(GetModelsDir(modelsDir), name)
}

// FindProjectRoot walks up from the working directory looking for go.mod.
// Used to locate a checked-out onnxruntime library in development.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}
