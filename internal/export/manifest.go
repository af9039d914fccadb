package export

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
)

// Manifest records the solved placement of every frame, so an alignment can
// be re-applied to the originals without rerunning the pipeline.
type Manifest struct {
	GeneratedAt time.Time   `yaml:"generated_at"`
	Frames      []FrameInfo `yaml:"frames"`
}

// FrameInfo is one frame's identity, size, anchor region and transform.
type FrameInfo struct {
	ID        string             `yaml:"id"`
	Width     float64            `yaml:"width"`
	Height    float64            `yaml:"height"`
	Region    *region.Region     `yaml:"region,omitempty"`
	Transform geometry.Transform `yaml:"transform"`
}

// NewManifest builds a manifest from aligned records.
func NewManifest(records []*align.ImageRecord) Manifest {
	m := Manifest{GeneratedAt: time.Now().UTC()}
	for _, rec := range records {
		m.Frames = append(m.Frames, FrameInfo{
			ID:        rec.ID,
			Width:     rec.Width,
			Height:    rec.Height,
			Region:    rec.Region,
			Transform: rec.Transform,
		})
	}
	return m
}

// Marshal encodes the manifest as YAML.
func (m Manifest) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return b, nil
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
