package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
)

func featureSet(points [][2]float64, descs [][]float32) *Features {
	f := &Features{Descriptors: descs}
	for _, p := range points {
		f.KeyPoints = append(f.KeyPoints, match.KeyPoint{X: p[0], Y: p[1], Score: 1})
	}
	return f
}

func TestMatchDescriptors_MutualNearestNeighbors(t *testing.T) {
	cfg := DefaultConfig()

	a := featureSet(
		[][2]float64{{10, 10}, {50, 50}, {90, 20}},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	// Same descriptors, permuted, slightly perturbed.
	b := featureSet(
		[][2]float64{{52, 48}, {91, 21}, {11, 12}},
		[][]float32{{0.05, 0.99, 0}, {0, 0.02, 0.99}, {0.99, 0, 0.05}},
	)

	corrs := matchDescriptors(a, b, cfg)
	require.Len(t, corrs, 3)

	// Output follows a's keypoint order.
	assert.InDelta(t, 10.0, corrs[0].P1.X, 1e-9)
	assert.InDelta(t, 11.0, corrs[0].P2.X, 1e-9)
	assert.InDelta(t, 50.0, corrs[1].P1.X, 1e-9)
	assert.InDelta(t, 52.0, corrs[1].P2.X, 1e-9)
	assert.InDelta(t, 90.0, corrs[2].P1.X, 1e-9)
	assert.InDelta(t, 91.0, corrs[2].P2.X, 1e-9)

	for _, c := range corrs {
		assert.GreaterOrEqual(t, c.Distance, 0.0)
		assert.Less(t, c.Distance, 50.0, "good matches sit inside the filter's keep range")
	}
}

func TestMatchDescriptors_RatioTestDropsAmbiguous(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatioThreshold = 0.8

	a := featureSet([][2]float64{{10, 10}}, [][]float32{{1, 0}})
	// Two nearly identical candidates: best/second ratio close to 1.
	b := featureSet(
		[][2]float64{{12, 10}, {80, 70}},
		[][]float32{{0.98, 0.02}, {0.979, 0.021}},
	)

	corrs := matchDescriptors(a, b, cfg)
	assert.Empty(t, corrs)
}

func TestMatchDescriptors_EmptyInputs(t *testing.T) {
	cfg := DefaultConfig()
	empty := &Features{}
	full := featureSet([][2]float64{{1, 1}}, [][]float32{{1, 0}})

	assert.Empty(t, matchDescriptors(empty, full, cfg))
	assert.Empty(t, matchDescriptors(full, empty, cfg))
}

func TestMatchDescriptors_NonMutualDropped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatioThreshold = 1.0

	// Both of a's descriptors are closest to b[0], but b[0]'s nearest in a
	// is a[0]; the a[1] pairing is not mutual and must be dropped.
	a := featureSet(
		[][2]float64{{10, 10}, {20, 20}},
		[][]float32{{1, 0}, {0.9, 0.1}},
	)
	b := featureSet([][2]float64{{11, 11}}, [][]float32{{1, 0}})

	corrs := matchDescriptors(a, b, cfg)
	require.Len(t, corrs, 1)
	assert.InDelta(t, 10.0, corrs[0].P1.X, 1e-9)
}

func TestNearestTwo(t *testing.T) {
	descs := [][]float32{{0, 1}, {1, 0}, {0.9, 0.1}}
	best, bestD, secondD := nearestTwo(descs, []float32{1, 0})

	assert.Equal(t, 1, best)
	assert.InDelta(t, 0.0, bestD, 1e-9)
	assert.Greater(t, secondD, bestD)
}
