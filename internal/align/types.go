// Package align orchestrates the two-pass alignment pipeline over an ordered
// image sequence: a translation pass that chains user-selected regions, and a
// rotation pass that refines each adjacent pair from feature correspondences.
package align

import (
	"context"
	"fmt"
	"image"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
)

// ImageRecord is one frame of the sequence being aligned. The orchestrator
// reads dimensions, region and raster, and reads-and-replaces the Transform;
// everything else is owned by the caller.
type ImageRecord struct {
	ID     string
	Width  float64
	Height float64

	// Region is the user-selected alignment anchor, in the image's own
	// pixel coordinates. Nil means the user never selected one; pairs
	// missing a region are skipped, not failed.
	Region *region.Region

	// Transform places the image on the canvas. Updated in place by the
	// orchestrator; scale is never modified.
	Transform geometry.Transform

	// Image is the decoded raster, needed only by the rotation pass for
	// feature detection. May be nil for translation-only runs.
	Image image.Image
}

// NewImageRecord builds a record from a decoded raster with an identity
// transform.
func NewImageRecord(id string, img image.Image) *ImageRecord {
	b := img.Bounds()
	return &ImageRecord{
		ID:        id,
		Width:     float64(b.Dx()),
		Height:    float64(b.Dy()),
		Transform: geometry.Identity(),
		Image:     img,
	}
}

// Matcher is the external feature-detector/matcher collaborator. Given two
// rasterized images it returns raw correspondences with non-negative distance
// scores (no upper bound guaranteed). A failure is treated by the orchestrator
// as zero correspondences for that pair; it never aborts a run.
type Matcher interface {
	DetectAndMatch(ctx context.Context, imgA, imgB image.Image) ([]match.Correspondence, error)
}

// Stage identifies which pass produced a pair outcome.
type Stage string

const (
	StageTranslation Stage = "translation"
	StageRotation    Stage = "rotation"
)

// Status classifies the per-pair result of a pass step.
type Status string

const (
	// StatusAligned means the step updated the pair's second image.
	StatusAligned Status = "aligned"
	// StatusSkippedNoRegion means one or both images lack a selected
	// region; the pair was skipped and nothing was touched.
	StatusSkippedNoRegion Status = "skipped_no_region"
	// StatusInsufficientMatches means fewer than the minimum filtered
	// correspondences survived; the rotation was left at its prior value.
	StatusInsufficientMatches Status = "insufficient_matches"
	// StatusDetectorFailed means the detector/matcher collaborator errored;
	// treated like an empty correspondence set.
	StatusDetectorFailed Status = "detector_failed"
)

// PairOutcome is the structured diagnostic record for one pair step. Tests
// and progress surfaces consume these instead of scraping log output.
type PairOutcome struct {
	Stage           Stage   `json:"stage"`
	Index           int     `json:"index"` // index of the pair's second image
	RefID           string  `json:"ref_id,omitempty"`
	CurID           string  `json:"cur_id,omitempty"`
	Status          Status  `json:"status"`
	Angle           float64 `json:"angle,omitempty"`
	RawMatches      int     `json:"raw_matches,omitempty"`
	FilteredMatches int     `json:"filtered_matches,omitempty"`
	DurationMs      int64   `json:"duration_ms,omitempty"`
	Err             error   `json:"-"`
}

func (o PairOutcome) String() string {
	return fmt.Sprintf("pair[%d %s %s]", o.Index, o.Stage, o.Status)
}
