package export

import (
	"archive/zip"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
)

// ManifestEntryName is the manifest's filename inside the archive.
const ManifestEntryName = "alignment.yaml"

// WriteArchive renders every record, optionally crops to the common area,
// and streams a zip of PNG frames plus the alignment manifest.
func WriteArchive(w io.Writer, records []*align.ImageRecord, cropToCommon bool) error {
	if len(records) == 0 {
		return fmt.Errorf("write archive: no frames")
	}

	frames := RenderAll(records)
	canvasW := int(records[0].Width)
	canvasH := int(records[0].Height)
	if cropToCommon {
		if common := CommonBounds(records, canvasW, canvasH); !common.Empty() {
			for i, f := range frames {
				frames[i] = f.SubImage(common).(*image.NRGBA)
			}
		}
	}

	zw := zip.NewWriter(w)
	for i, frame := range frames {
		name := fmt.Sprintf("frame_%02d_%s.png", i, records[i].ID)
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("write archive: create %s: %w", name, err)
		}
		if err := png.Encode(entry, frame); err != nil {
			return fmt.Errorf("write archive: encode %s: %w", name, err)
		}
	}

	manifest, err := NewManifest(records).Marshal()
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	entry, err := zw.Create(ManifestEntryName)
	if err != nil {
		return fmt.Errorf("write archive: create manifest: %w", err)
	}
	if _, err := entry.Write(manifest); err != nil {
		return fmt.Errorf("write archive: write manifest: %w", err)
	}

	return zw.Close()
}
