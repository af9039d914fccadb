package detector

import (
	"context"
	"image"
	"log/slog"
	"math"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
)

// Matcher pairs a keypoint detector with brute-force descriptor matching,
// satisfying the alignment orchestrator's collaborator interface.
type Matcher struct {
	detector *Detector
	config   Config
}

// NewMatcher creates the matcher around an open detector.
func NewMatcher(d *Detector) *Matcher {
	return &Matcher{detector: d, config: d.GetConfig()}
}

// Close releases the underlying detector.
func (m *Matcher) Close() error { return m.detector.Close() }

// DetectAndMatch detects keypoints in both images and returns mutual
// nearest-neighbor correspondences with scaled descriptor distances. The
// context is honored between the two inference calls.
func (m *Matcher) DetectAndMatch(ctx context.Context, imgA, imgB image.Image) ([]match.Correspondence, error) {
	featsA, err := m.detector.Detect(imgA)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	featsB, err := m.detector.Detect(imgB)
	if err != nil {
		return nil, err
	}

	corrs := matchDescriptors(featsA, featsB, m.config)
	slog.Debug("descriptor matching done",
		"keypoints_a", len(featsA.KeyPoints),
		"keypoints_b", len(featsB.KeyPoints),
		"matches", len(corrs))
	return corrs, nil
}

// matchDescriptors runs mutual nearest-neighbor matching with a Lowe ratio
// test. Distances are L2 over unit descriptors, scaled by DistanceScale into
// the range the correspondence filter is tuned for. Output order follows the
// first image's keypoint order, so matching is deterministic.
func matchDescriptors(a, b *Features, cfg Config) []match.Correspondence {
	if len(a.KeyPoints) == 0 || len(b.KeyPoints) == 0 {
		return nil
	}

	// Nearest neighbor of every b-descriptor in a, for the mutual check.
	bestForB := make([]int, len(b.Descriptors))
	for j, db := range b.Descriptors {
		bestForB[j] = nearestIndex(a.Descriptors, db)
	}

	var out []match.Correspondence
	for i, da := range a.Descriptors {
		bestJ, bestD, secondD := nearestTwo(b.Descriptors, da)
		if bestJ < 0 || bestForB[bestJ] != i {
			continue
		}
		if secondD > 0 && bestD/secondD >= cfg.RatioThreshold {
			continue
		}
		out = append(out, match.Correspondence{
			P1:       geometry.Point{X: a.KeyPoints[i].X, Y: a.KeyPoints[i].Y},
			P2:       geometry.Point{X: b.KeyPoints[bestJ].X, Y: b.KeyPoints[bestJ].Y},
			Distance: bestD * cfg.DistanceScale,
		})
	}
	return out
}

func nearestIndex(descs [][]float32, q []float32) int {
	best, bestDist := -1, math.MaxFloat64
	for i, d := range descs {
		if dist := l2(d, q); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func nearestTwo(descs [][]float32, q []float32) (best int, bestDist, secondDist float64) {
	best, bestDist, secondDist = -1, math.MaxFloat64, math.MaxFloat64
	for i, d := range descs {
		dist := l2(d, q)
		switch {
		case dist < bestDist:
			second := bestDist
			best, bestDist = i, dist
			secondDist = second
		case dist < secondDist:
			secondDist = dist
		}
	}
	return best, bestDist, secondDist
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
