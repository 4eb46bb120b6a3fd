package strip

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var loadFonts = sync.OnceValues(func() (map[Font]*opentype.Font, error) {
	sources := map[Font][]byte{
		FontScript: goitalic.TTF,
		FontSerif:  goregular.TTF,
	}
	fonts := make(map[Font]*opentype.Font, len(sources))
	for f, ttf := range sources {
		parsed, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %d: %w", f, err)
		}
		fonts[f] = parsed
	}
	return fonts, nil
})

type faceKey struct {
	font Font
	size float64
}

// Raster is a Surface backed by an RGBA image.
type Raster struct {
	img *image.RGBA

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewRaster returns a transparent canvas of the given size.
func NewRaster(size image.Point) *Raster {
	return &Raster{
		img:   image.NewRGBA(image.Rectangle{Max: size}),
		faces: make(map[faceKey]font.Face),
	}
}

// Image returns the canvas.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

func (r *Raster) FillRect(rect image.Rectangle, c color.Color) {
	draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// StrokeRect draws a border of the given width centered on rect's edges.
func (r *Raster) StrokeRect(rect image.Rectangle, width int, c color.Color) {
	if width <= 0 {
		return
	}
	outer := rect.Inset(-(width / 2))
	inner := outer.Inset(width)
	src := image.NewUniform(c)
	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	}
	for _, b := range bands {
		draw.Draw(r.img, b, src, image.Point{}, draw.Over)
	}
}

func (r *Raster) ShadowRect(rect image.Rectangle, c color.Color, s Shadow) {
	margin := int(math.Ceil(s.Blur*1.5)) + max(abs(s.OffsetX), abs(s.OffsetY))
	layer := image.NewRGBA(image.Rect(0, 0, rect.Dx()+2*margin, rect.Dy()+2*margin))
	cast := image.Rect(0, 0, rect.Dx(), rect.Dy()).Add(image.Pt(margin+s.OffsetX, margin+s.OffsetY))
	draw.Draw(layer, cast, image.NewUniform(s.Color), image.Point{}, draw.Src)

	soft := blur.Gaussian(layer, s.Blur/2)
	dst := soft.Bounds().Add(rect.Min.Sub(image.Pt(margin, margin)))
	draw.Draw(r.img, dst, soft, soft.Bounds().Min, draw.Over)

	r.FillRect(rect, c)
}

func (r *Raster) DrawImage(img image.Image, dst image.Rectangle) {
	src := img
	if img.Bounds().Size() != dst.Size() {
		src = transform.Resize(img, dst.Dx(), dst.Dy(), transform.Linear)
	}
	draw.Draw(r.img, dst, src, src.Bounds().Min, draw.Over)
}

func (r *Raster) Text(s string, cx, y int, style TextStyle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	face, err := r.face(style.Font, style.Size)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(style.Color),
		Face: face,
	}
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{X: fixed.I(cx) - width/2, Y: fixed.I(y)}
	d.DrawString(s)
	return nil
}

func (r *Raster) face(f Font, size float64) (font.Face, error) {
	key := faceKey{f, size}
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	parsed, ok := fonts[f]
	if !ok {
		return nil, fmt.Errorf("unknown font %d", f)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // 1pt = 1px
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %d@%v: %w", f, size, err)
	}
	r.faces[key] = face
	return face, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
