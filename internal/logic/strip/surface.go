package strip

import (
	"image"
	"image/color"
)

// Font selects one of the strip's typefaces.
type Font int

const (
	FontScript Font = iota // title line
	FontSerif              // date and attribution
)

// TextStyle describes one footer line.
type TextStyle struct {
	Font  Font
	Size  float64 // pixels
	Color color.Color
}

// Shadow is a blurred drop shadow cast by a filled rectangle.
type Shadow struct {
	Color   color.Color
	Blur    float64
	OffsetX int
	OffsetY int
}

// Surface is the 2D drawing target of the composer. Raster draws into an
// image; tests record the calls.
type Surface interface {
	FillRect(r image.Rectangle, c color.Color)
	StrokeRect(r image.Rectangle, width int, c color.Color)
	// ShadowRect fills r with c over a drop shadow.
	ShadowRect(r image.Rectangle, c color.Color, s Shadow)
	// DrawImage scales img into dst.
	DrawImage(img image.Image, dst image.Rectangle)
	// Text draws s horizontally centered on cx with its baseline at y.
	Text(s string, cx, y int, style TextStyle) error
}
