package frame

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/cjeanneret/BoothGo/internal/debug"
)

// Still is one encoded photo of the strip. It is never modified after
// Extract returns it.
type Still struct {
	Data   []byte // JPEG bytes
	Width  int
	Height int
}

// Options describe the still to produce.
type Options struct {
	Width   int
	Height  int
	Quality int // JPEG quality 1-100
}

// DefaultOptions are 400x415 stills at quality 90.
func DefaultOptions() Options {
	return Options{Width: 400, Height: 415, Quality: 90}
}

// CropRect returns the largest centered rectangle of a srcW x srcH frame
// with the dstW:dstH aspect ratio. Wider sources lose equal margins left and
// right, taller sources equal margins top and bottom.
func CropRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)

	if srcAspect > dstAspect {
		w := int(math.Round(float64(srcH) * dstAspect))
		x := (srcW - w) / 2
		return image.Rect(x, 0, x+w, srcH)
	}
	h := int(math.Round(float64(srcW) / dstAspect))
	y := (srcH - h) / 2
	return image.Rect(0, y, srcW, y+h)
}

// Extract crops the centered region of img, scales it to exactly
// opts.Width x opts.Height, mirrors it horizontally so the guest sees what
// the live preview showed, and encodes it as JPEG.
func Extract(img image.Image, opts Options) (Still, error) {
	b := img.Bounds()
	if b.Empty() {
		return Still{}, fmt.Errorf("extract: empty frame")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return Still{}, fmt.Errorf("extract: invalid target size %dx%d", opts.Width, opts.Height)
	}

	crop := CropRect(b.Dx(), b.Dy(), opts.Width, opts.Height).Add(b.Min)
	debug.Verbose("Frame: source %v, crop %v -> %dx%d", b, crop, opts.Width, opts.Height)

	cropped := transform.Crop(img, crop)
	scaled := transform.Resize(cropped, opts.Width, opts.Height, transform.Linear)
	mirrored := transform.FlipH(scaled)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(quality)(&buf, mirrored); err != nil {
		return Still{}, fmt.Errorf("extract: encode jpeg: %w", err)
	}
	return Still{Data: buf.Bytes(), Width: opts.Width, Height: opts.Height}, nil
}
