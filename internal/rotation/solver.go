// Package rotation solves the residual rotation between two images from
// filtered feature correspondences by bounded brute-force angular search.
package rotation

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
)

// ErrInsufficientCorrespondences signals that fewer than MinCorrespondences
// pairs were supplied. Non-fatal: the caller keeps its prior rotation.
var ErrInsufficientCorrespondences = errors.New("insufficient correspondences for rotation solving")

// MinCorrespondences is the smallest pair count the solver accepts.
const MinCorrespondences = 3

// Config bounds the angular search. The window is deliberately narrow: the
// translation pass has already removed most positional offset, so only small
// residual rotation remains, and a tight window avoids pathological minima at
// large angles without resorting to gradient methods.
//
// The step size is an explicit knob rather than a constant because no single
// value is right for every use: 0.5 is fine for interactive alignment, 0.1
// buys precision at 5x the candidate count.
type Config struct {
	MinAngle float64 `mapstructure:"min_angle" yaml:"min_angle"` // degrees, inclusive
	MaxAngle float64 `mapstructure:"max_angle" yaml:"max_angle"` // degrees, inclusive
	Step     float64 `mapstructure:"step" yaml:"step"`           // degrees, > 0
}

// DefaultConfig returns the standard +/-30 degree window at half-degree steps.
func DefaultConfig() Config {
	return Config{
		MinAngle: -30,
		MaxAngle: 30,
		Step:     0.5,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("rotation step must be positive, got %g", c.Step)
	}
	if c.MaxAngle < c.MinAngle {
		return fmt.Errorf("rotation range is empty: [%g, %g]", c.MinAngle, c.MaxAngle)
	}
	return nil
}

// Solve finds the angle in [MinAngle, MaxAngle], stepped by Step, that
// minimizes the total Euclidean distance between points1[i] and points2[i]
// rotated around center. The scan is ascending and the first minimum wins
// ties, so results are exactly reproducible for fixed inputs. Residuals are
// summed in input order.
//
// The rotation center should be the pixel-space center of the second image's
// selected region; callers without a region fall back to the origin.
func Solve(points1, points2 []geometry.Point, center geometry.Point, cfg Config) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if len(points1) != len(points2) {
		return 0, fmt.Errorf("point sets differ in length: %d vs %d", len(points1), len(points2))
	}
	if len(points1) < MinCorrespondences {
		return 0, fmt.Errorf("%w: have %d, need %d",
			ErrInsufficientCorrespondences, len(points1), MinCorrespondences)
	}

	// Candidate angles are derived by index so that accumulated float error
	// in the loop variable cannot change the candidate set.
	steps := int(math.Floor((cfg.MaxAngle-cfg.MinAngle)/cfg.Step + 1e-9))

	bestAngle := cfg.MinAngle
	bestTotal := math.MaxFloat64
	for i := 0; i <= steps; i++ {
		angle := cfg.MinAngle + float64(i)*cfg.Step
		total := 0.0
		for j := range points2 {
			rotated := geometry.RotatePoint(points2[j], center, angle)
			total += rotated.Dist(points1[j])
		}
		if total < bestTotal {
			bestTotal = total
			bestAngle = angle
		}
	}

	slog.Debug("rotation solved",
		"angle", bestAngle,
		"total_residual", bestTotal,
		"candidates", steps+1,
		"pairs", len(points1))
	return bestAngle, nil
}

// SolveCorrespondences splits a filtered correspondence list into its two
// point sets and solves. The first image's points are the targets; the second
// image's points are rotated onto them. A nil center falls back to the
// coordinate origin.
func SolveCorrespondences(corrs []match.Correspondence, center *geometry.Point, cfg Config) (float64, error) {
	p1 := make([]geometry.Point, len(corrs))
	p2 := make([]geometry.Point, len(corrs))
	for i, c := range corrs {
		p1[i] = c.P1
		p2[i] = c.P2
	}
	c := geometry.Point{}
	if center != nil {
		c = *center
	}
	return Solve(p1, p2, c, cfg)
}
