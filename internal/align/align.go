package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MANISPIN/align-images-for-lenticular/internal/common"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
	"github.com/MANISPIN/align-images-for-lenticular/internal/rotation"
)

// ErrInsufficientImages is the only fatal error of a run: fewer than two
// images leaves nothing to align.
var ErrInsufficientImages = errors.New("alignment requires at least 2 images")

// ErrNoMatcher is returned by rotation runs when no detector/matcher
// collaborator was injected.
var ErrNoMatcher = errors.New("no feature matcher configured")

// Config holds configuration for the orchestrator and its solvers.
type Config struct {
	Filter   match.FilterConfig `mapstructure:"filter" yaml:"filter"`
	Rotation rotation.Config    `mapstructure:"rotation" yaml:"rotation"`

	// OnPairOutcome, when set, receives one record per pair step in
	// sequence order. Must not retain the record past the call.
	OnPairOutcome func(PairOutcome) `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns solver defaults.
func DefaultConfig() Config {
	return Config{
		Filter:   match.DefaultFilterConfig(),
		Rotation: rotation.DefaultConfig(),
	}
}

// Aligner runs the alignment pipeline. The matcher is an explicit dependency;
// the orchestrator never reaches for a shared instance.
type Aligner struct {
	cfg     Config
	matcher Matcher
}

// New creates an aligner. The matcher may be nil for translation-only use;
// rotation runs then fail with ErrNoMatcher.
func New(cfg Config, matcher Matcher) (*Aligner, error) {
	if err := cfg.Rotation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aligner config: %w", err)
	}
	return &Aligner{cfg: cfg, matcher: matcher}, nil
}

// Run executes both passes in order: translations chain-wise, then rotations
// pairwise. Images are updated in place. Per-pair failures degrade to leaving
// the affected field unchanged; only an insufficient image count is fatal.
func (a *Aligner) Run(ctx context.Context, images []*ImageRecord) error {
	if len(images) < 2 {
		return ErrInsufficientImages
	}
	if err := a.RunTranslation(ctx, images); err != nil {
		return err
	}
	return a.RunRotation(ctx, images)
}

// RunTranslation executes pass 1 alone. The first image with a region is
// centered on its region; each subsequent image is chained onto its already
// placed predecessor. Pairs missing a region on either side are skipped.
func (a *Aligner) RunTranslation(ctx context.Context, images []*ImageRecord) error {
	if len(images) < 2 {
		return ErrInsufficientImages
	}

	if first := images[0]; first.Region != nil {
		first.Transform = region.CenterRegion(first.Width, first.Height, first.Transform, *first.Region)
		slog.Debug("centered first image", "id", first.ID, "transform", first.Transform.String())
	}

	for i := 0; i < len(images)-1; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.translateStep(images, i)
	}
	return nil
}

func (a *Aligner) translateStep(images []*ImageRecord, i int) {
	ref, cur := images[i], images[i+1]
	outcome := PairOutcome{Stage: StageTranslation, Index: i + 1, RefID: ref.ID, CurID: cur.ID}

	if ref.Region == nil || cur.Region == nil {
		outcome.Status = StatusSkippedNoRegion
		a.emit(outcome)
		return
	}

	cur.Transform = region.AlignToReference(
		ref.Width, ref.Height, ref.Transform, *ref.Region,
		cur.Width, cur.Height, cur.Transform, *cur.Region)
	outcome.Status = StatusAligned
	a.emit(outcome)
}

// RunRotation executes pass 2 alone, assuming translations were already
// solved. For each adjacent pair with regions on both sides, the matcher
// supplies correspondences, the filter cleans them, and the solver's angle
// overwrites only the rotation of the pair's second image. Any per-pair
// failure leaves that rotation unchanged and the run continues.
func (a *Aligner) RunRotation(ctx context.Context, images []*ImageRecord) error {
	if len(images) < 2 {
		return ErrInsufficientImages
	}
	if a.matcher == nil {
		return ErrNoMatcher
	}

	for i := 0; i < len(images)-1; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.rotateStep(ctx, images, i)
	}
	return nil
}

func (a *Aligner) rotateStep(ctx context.Context, images []*ImageRecord, i int) {
	ref, cur := images[i], images[i+1]
	outcome := PairOutcome{Stage: StageRotation, Index: i + 1, RefID: ref.ID, CurID: cur.ID}
	timer := common.NewStageTimer(string(StageRotation))
	defer func() {
		outcome.DurationMs = timer.Stop().Milliseconds()
		a.emit(outcome)
	}()

	if ref.Region == nil || cur.Region == nil {
		outcome.Status = StatusSkippedNoRegion
		return
	}

	corrs, err := a.matcher.DetectAndMatch(ctx, ref.Image, cur.Image)
	if err != nil {
		// Collaborator failure degrades to an empty correspondence set;
		// the pair keeps its prior rotation.
		outcome.Status = StatusDetectorFailed
		outcome.Err = err
		slog.Warn("feature matching failed, keeping prior rotation",
			"pair", i+1, "cur", cur.ID, "error", err)
		return
	}
	outcome.RawMatches = len(corrs)

	filtered := match.Filter(corrs, a.cfg.Filter)
	outcome.FilteredMatches = len(filtered)

	center := cur.Region.Center()
	angle, err := rotation.SolveCorrespondences(filtered, &center, a.cfg.Rotation)
	if err != nil {
		outcome.Status = StatusInsufficientMatches
		outcome.Err = err
		slog.Debug("rotation not solved, keeping prior value",
			"pair", i+1, "cur", cur.ID, "filtered", len(filtered), "error", err)
		return
	}

	cur.Transform.Rotation = angle
	outcome.Status = StatusAligned
	outcome.Angle = angle
	slog.Debug("rotation applied",
		"pair", i+1, "cur", cur.ID, "angle", angle, "filtered", len(filtered))
}

func (a *Aligner) emit(o PairOutcome) {
	if a.cfg.OnPairOutcome != nil {
		a.cfg.OnPairOutcome(o)
	}
}
