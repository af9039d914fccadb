package utils

import (
	"image"

	"github.com/disintegration/imaging"
)

// FitWithin scales img down so both dimensions are at most maxSize,
// preserving aspect ratio. Images already inside the bound are returned
// unchanged. Returns the possibly-resized image and the scale factor applied
// (1.0 when untouched), which callers use to map detected keypoints back to
// original pixel coordinates.
func FitWithin(img image.Image, maxSize int) (image.Image, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img, 1.0
	}

	scale := float64(maxSize) / float64(w)
	if h > w {
		scale = float64(maxSize) / float64(h)
	}
	resized := imaging.Resize(img, int(float64(w)*scale+0.5), 0, imaging.Linear)
	return resized, scale
}

// GrayFloats converts an image to a row-major float32 grayscale plane in
// [0, 1], the input layout the keypoint model expects.
func GrayFloats(img image.Image) ([]float32, int, int) {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			// NRGBA grayscale: R == G == B.
			out[y*w+x] = float32(row[x*4]) / 255.0
		}
	}
	return out, w, h
}
