// Package utils provides image loading, saving and raster conversion helpers
// shared by the CLI, server and detector.
package utils

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// SupportedImageExtensions lists the file extensions accepted for input
// frames.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight pixel information about a loaded frame.
type ImageMetadata struct {
	Path   string
	Width  int
	Height int
}

// LoadImage opens and decodes an image file, honoring EXIF orientation so
// that pixel coordinates match what the user saw when selecting a region.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		return nil, ImageMetadata{}, fmt.Errorf("load image: empty path")
	}
	if !IsSupportedImage(path) {
		return nil, ImageMetadata{}, fmt.Errorf("load image %s: unsupported format %q", path, filepath.Ext(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("load image %s: %w", path, err)
	}

	b := img.Bounds()
	return img, ImageMetadata{Path: path, Width: b.Dx(), Height: b.Dy()}, nil
}

// SaveImage writes an image, with the format inferred from the extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
