// Package imageproc normalizes captured photos before they are sent to the
// analysis model or persisted: bounded dimensions, JPEG re-encode, aspect
// ratio preserved.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension bounds the longest side of a normalized image.
	DefaultMaxDimension = 800
	// DefaultQuality is the JPEG quality used on re-encode.
	DefaultQuality = 80
)

// Normalize decodes data (JPEG, PNG or GIF), downscales it so the longest
// side is at most maxDimension, and re-encodes as JPEG. Pure transformation,
// no side effects. Callers must fall back to the original bytes on error
// rather than aborting entry creation.
func Normalize(data []byte, maxDimension, quality int) ([]byte, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageproc: decoding image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := fit(width, height, maxDimension)

	if newWidth != width || newHeight != height {
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imageproc: encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales (width, height) so the longest side equals maxDim, rounding the
// short side and never upscaling.
func fit(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width > height {
		return maxDim, int(float64(height)*float64(maxDim)/float64(width) + 0.5)
	}
	return int(float64(width)*float64(maxDim)/float64(height) + 0.5), maxDim
}
