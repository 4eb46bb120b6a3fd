package camera

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
)

// Pattern is a synthetic source for development without a camera.
// Each frame is a diagonal gradient with a vertical bar that moves one
// step per frame, so mirroring and cropping are visible in the output.
type Pattern struct {
	// Width and Height force a frame size; zero uses the constraints.
	Width  int
	Height int
}

// Open returns a pattern stream at the requested resolution.
func (p Pattern) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := p.Width, p.Height
	if w <= 0 {
		w = c.IdealWidth
	}
	if h <= 0 {
		h = c.IdealHeight
	}
	if w <= 0 || h <= 0 {
		w, h = 1280, 720
	}
	return &patternStream{width: w, height: h}, nil
}

type patternStream struct {
	width, height int
	frame         atomic.Int64
	stopped       atomic.Bool
}

func (s *patternStream) Frame(ctx context.Context) (image.Image, error) {
	if s.stopped.Load() {
		return nil, ErrNotAcquired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int(s.frame.Add(1))
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))

	barW := s.width / 16
	if barW < 1 {
		barW = 1
	}
	barX := (n * barW) % s.width
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.RGBA{
				R: uint8(255 * x / s.width),
				G: uint8(255 * y / s.height),
				B: 128,
				A: 255,
			}
			if x >= barX && x < barX+barW {
				c = color.RGBA{R: 196, G: 30, B: 58, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (s *patternStream) Preview(ctx context.Context) (image.Image, error) {
	return s.Frame(ctx)
}

func (s *patternStream) Stop() error {
	s.stopped.Store(true)
	return nil
}
