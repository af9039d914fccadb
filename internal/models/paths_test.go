package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModelsDir(t *testing.T) {
	assert.Equal(t, "custom", GetModelsDir("custom"))

	t.Setenv(EnvModelsDir, "/opt/models")
	assert.Equal(t, "/opt/models", GetModelsDir(""))

	t.Setenv(EnvModelsDir, "")
	assert.Equal(t, DefaultModelsDir, GetModelsDir(""))
}

func TestGetKeypointModelPath(t *testing.T) {
	t.Setenv(EnvModelsDir, "")
	assert.Equal(t, filepath.Join("models", KeypointMobile), GetKeypointModelPath("", false))
	assert.Equal(t, filepath.Join("m", KeypointServer), GetKeypointModelPath("m", true))
}
