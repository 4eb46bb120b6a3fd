package strip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
)

// ErrStillCount is returned when Compose does not get exactly one still per slot.
var ErrStillCount = errors.New("wrong number of stills")

var (
	crimson    = color.RGBA{R: 0xc4, G: 0x1e, B: 0x3a, A: 0xff}
	backing    = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
	shadowTint = color.NRGBA{A: 46} // rgba(0,0,0,0.18)
	outline    = color.NRGBA{A: 31} // rgba(0,0,0,0.12)
	dateGray   = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	creditGray = color.RGBA{R: 0x8b, G: 0x8b, B: 0x8b, A: 0xff}
)

// Footer holds the text lines printed under the photos. The date line
// sits between Title and Attribution.
type Footer struct {
	Title       string
	Attribution string
}

// DefaultFooter is the holiday footer.
func DefaultFooter() Footer {
	return Footer{Title: "Merry Christmas", Attribution: "by michellelichen.com"}
}

// Decoder turns an encoded still into pixels. It may be called
// concurrently for different stills.
type Decoder func(ctx context.Context, st frame.Still) (image.Image, error)

// DecodeStill decodes the still's JPEG bytes.
func DecodeStill(ctx context.Context, st frame.Still) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(st.Data))
	if err != nil {
		return nil, fmt.Errorf("decode still: %w", err)
	}
	return img, nil
}

// FormatDate renders t as "MM • DD • YYYY".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d • %02d • %04d", int(t.Month()), t.Day(), t.Year())
}

// Composer lays out stills and footer text into a strip.
type Composer struct {
	Layout Layout
	Footer Footer
	Decode Decoder
}

// NewComposer returns a composer using DecodeStill.
func NewComposer(l Layout, f Footer) *Composer {
	return &Composer{Layout: l, Footer: f, Decode: DecodeStill}
}

// Compose renders the strip into a new image.
func (c *Composer) Compose(ctx context.Context, stills []frame.Still, now time.Time) (*image.RGBA, error) {
	r := NewRaster(c.Layout.Size())
	if err := c.Draw(ctx, r, stills, now); err != nil {
		return nil, err
	}
	return r.Image(), nil
}

// Draw paints background, border, every still with its frame, then the
// footer. Stills decode concurrently and are drawn as they arrive, one at a
// time; the footer is only drawn once all of them are on the surface.
func (c *Composer) Draw(ctx context.Context, surf Surface, stills []frame.Still, now time.Time) error {
	l := c.Layout
	if len(stills) != l.Photos {
		return fmt.Errorf("compose: got %d stills, want %d: %w", len(stills), l.Photos, ErrStillCount)
	}
	decode := c.Decode
	if decode == nil {
		decode = DecodeStill
	}

	size := l.Size()
	debug.Verbose("Strip: canvas %dx%d", size.X, size.Y)
	surf.FillRect(l.Bounds(), color.White)
	surf.StrokeRect(image.Rect(8, 8, size.X-8, size.Y-8), 4, crimson)

	var drawMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stills {
		g.Go(func() error {
			img, err := decode(gctx, st)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i+1, err)
			}
			drawMu.Lock()
			defer drawMu.Unlock()
			c.drawPhoto(surf, i, img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	return c.drawFooter(surf, now)
}

func (c *Composer) drawPhoto(surf Surface, i int, img image.Image) {
	r := c.Layout.PhotoRect(i)
	debug.Verbose("Strip: photo %d at %v", i+1, r.Min)

	surf.ShadowRect(r.Inset(-5), backing, Shadow{
		Color:   shadowTint,
		Blur:    10,
		OffsetX: 3,
		OffsetY: 3,
	})
	surf.DrawImage(img, r)
	surf.StrokeRect(r, 1, outline)
}

func (c *Composer) drawFooter(surf Surface, now time.Time) error {
	top := c.Layout.FooterTop()
	cx := c.Layout.CenterX()

	lines := []struct {
		text  string
		dy    int
		style TextStyle
	}{
		{c.Footer.Title, 44, TextStyle{Font: FontScript, Size: 42, Color: crimson}},
		{FormatDate(now), 66, TextStyle{Font: FontSerif, Size: 20, Color: dateGray}},
		{c.Footer.Attribution, 96, TextStyle{Font: FontSerif, Size: 16, Color: creditGray}},
	}
	for _, ln := range lines {
		if ln.text == "" {
			continue
		}
		if err := surf.Text(ln.text, cx, top+ln.dy, ln.style); err != nil {
			return fmt.Errorf("footer %q: %w", ln.text, err)
		}
	}
	return nil
}
