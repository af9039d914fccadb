package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrayTensor(t *testing.T) {
	data := make([]float32, 6)
	tensor, err := NewGrayTensor(data, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2, 3}, tensor.Shape)
	require.NoError(t, tensor.Verify())
}

func TestNewGrayTensor_BadLength(t *testing.T) {
	_, err := NewGrayTensor(make([]float32, 5), 2, 3)
	require.Error(t, err)

	_, err = NewGrayTensor(nil, 2, 3)
	require.Error(t, err)
}

func TestTensorVerify(t *testing.T) {
	bad := Tensor{Data: make([]float32, 4), Shape: []int64{1, 1, 2}}
	require.Error(t, bad.Verify())

	negative := Tensor{Data: make([]float32, 4), Shape: []int64{1, 1, -2, 2}}
	require.Error(t, negative.Verify())

	short := Tensor{Data: make([]float32, 3), Shape: []int64{1, 1, 2, 2}}
	require.Error(t, short.Verify())
}

func TestDefaultGPUConfig(t *testing.T) {
	cfg := DefaultGPUConfig()
	assert.False(t, cfg.UseGPU)
	assert.Equal(t, 0, cfg.DeviceID)
}
