package strip

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/BoothGo/internal/logic/frame"
)

// ---------- Layout ----------

func TestLayout_DefaultSize(t *testing.T) {
	l := DefaultLayout()
	got := l.Size()
	// 400 + 2*30 ; 3*415 + 2*20 + 2*30 + 130
	want := image.Pt(460, 1475)
	if got != want {
		t.Errorf("Size() = %v, want %v", got, want)
	}
}

func TestLayout_PhotoOrigins(t *testing.T) {
	l := DefaultLayout()
	for i := 0; i < 3; i++ {
		want := image.Pt(l.Padding, l.Padding+i*(l.PhotoHeight+l.Spacing))
		if got := l.PhotoOrigin(i); got != want {
			t.Errorf("PhotoOrigin(%d) = %v, want %v", i, got, want)
		}
	}
	if got := l.PhotoRect(2); got != image.Rect(30, 900, 430, 1315) {
		t.Errorf("PhotoRect(2) = %v", got)
	}
	if got := l.FooterTop(); got != 1335 {
		t.Errorf("FooterTop() = %d, want 1335", got)
	}
	if got := l.CenterX(); got != 230 {
		t.Errorf("CenterX() = %d, want 230", got)
	}
}

func TestFormatDate(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2025, 12, 25, 18, 0, 0, 0, time.UTC), "12 • 25 • 2025"},
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "01 • 05 • 2026"},
	}
	for _, tc := range cases {
		if got := FormatDate(tc.t); got != tc.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

// ---------- Draw ordering ----------

type op struct {
	kind string
	rect image.Rectangle
	text string
	x, y int
	img  image.Image
}

// recordingSurface records drawing calls in order.
type recordingSurface struct {
	mu  sync.Mutex
	ops []op
}

func (s *recordingSurface) add(o op) {
	s.mu.Lock()
	s.ops = append(s.ops, o)
	s.mu.Unlock()
}

func (s *recordingSurface) FillRect(r image.Rectangle, c color.Color) {
	s.add(op{kind: "fill", rect: r})
}

func (s *recordingSurface) StrokeRect(r image.Rectangle, width int, c color.Color) {
	s.add(op{kind: "stroke", rect: r})
}

func (s *recordingSurface) ShadowRect(r image.Rectangle, c color.Color, sh Shadow) {
	s.add(op{kind: "shadow", rect: r})
}

func (s *recordingSurface) DrawImage(img image.Image, dst image.Rectangle) {
	s.add(op{kind: "image", rect: dst, img: img})
}

func (s *recordingSurface) Text(str string, cx, y int, style TextStyle) error {
	s.add(op{kind: "text", text: str, x: cx, y: y})
	return nil
}

// marker is a decoded still that remembers which still it came from.
type marker struct {
	*image.RGBA
	index int
}

// slowDecoder decodes after a random delay so stills finish in random order.
func slowDecoder(rng *rand.Rand) Decoder {
	var mu sync.Mutex
	return func(ctx context.Context, st frame.Still) (image.Image, error) {
		mu.Lock()
		d := time.Duration(rng.IntN(3000)) * time.Microsecond
		mu.Unlock()
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return marker{RGBA: image.NewRGBA(image.Rect(0, 0, 4, 4)), index: int(st.Data[0])}, nil
	}
}

func markedStills() []frame.Still {
	return []frame.Still{{Data: []byte{0}}, {Data: []byte{1}}, {Data: []byte{2}}}
}

func TestDraw_FooterAfterAllStills(t *testing.T) {
	now := time.Date(2025, 12, 24, 20, 0, 0, 0, time.UTC)
	for seed := uint64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			c := NewComposer(DefaultLayout(), DefaultFooter())
			c.Decode = slowDecoder(rand.New(rand.NewPCG(seed, seed*7)))
			surf := &recordingSurface{}

			if err := c.Draw(context.Background(), surf, markedStills(), now); err != nil {
				t.Fatalf("Draw: %v", err)
			}

			images, firstText := 0, -1
			for i, o := range surf.ops {
				switch o.kind {
				case "image":
					if firstText >= 0 {
						t.Fatalf("image drawn at op %d after footer text at op %d", i, firstText)
					}
					images++
				case "text":
					if firstText < 0 {
						firstText = i
					}
				}
			}
			if images != 3 {
				t.Errorf("drew %d images, want 3", images)
			}
			if firstText < 0 {
				t.Error("footer never drawn")
			}
		})
	}
}

func TestDraw_StillsAtStackedOffsets(t *testing.T) {
	l := DefaultLayout()
	c := NewComposer(l, DefaultFooter())
	c.Decode = slowDecoder(rand.New(rand.NewPCG(42, 1)))
	surf := &recordingSurface{}

	if err := c.Draw(context.Background(), surf, markedStills(), time.Now()); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	seen := map[int]bool{}
	for _, o := range surf.ops {
		if o.kind != "image" {
			continue
		}
		m := o.img.(marker)
		wantY := l.Padding + m.index*(l.PhotoHeight+l.Spacing)
		if o.rect.Min != image.Pt(l.Padding, wantY) {
			t.Errorf("still %d drawn at %v, want (%d,%d)", m.index, o.rect.Min, l.Padding, wantY)
		}
		if o.rect.Size() != image.Pt(l.PhotoWidth, l.PhotoHeight) {
			t.Errorf("still %d drawn at size %v", m.index, o.rect.Size())
		}
		seen[m.index] = true
	}
	if len(seen) != 3 {
		t.Errorf("stills drawn: %v, want 0,1,2", seen)
	}
}

func TestDraw_PerPhotoOrder(t *testing.T) {
	c := NewComposer(DefaultLayout(), DefaultFooter())
	c.Decode = slowDecoder(rand.New(rand.NewPCG(3, 9)))
	surf := &recordingSurface{}
	if err := c.Draw(context.Background(), surf, markedStills(), time.Now()); err != nil {
		t.Fatal(err)
	}

	// background, border, then (shadow, image, outline) x3 unbroken, then text.
	if surf.ops[0].kind != "fill" || surf.ops[1].kind != "stroke" {
		t.Fatalf("first ops = %s, %s; want fill, stroke", surf.ops[0].kind, surf.ops[1].kind)
	}
	for p := 0; p < 3; p++ {
		base := 2 + p*3
		got := []string{surf.ops[base].kind, surf.ops[base+1].kind, surf.ops[base+2].kind}
		if got[0] != "shadow" || got[1] != "image" || got[2] != "stroke" {
			t.Errorf("photo slot %d ops = %v, want [shadow image stroke]", p, got)
		}
	}
}

func TestDraw_FooterText(t *testing.T) {
	l := DefaultLayout()
	c := NewComposer(l, Footer{Title: "Happy Holidays", Attribution: "by the booth"})
	c.Decode = slowDecoder(rand.New(rand.NewPCG(5, 5)))
	surf := &recordingSurface{}

	now := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	if err := c.Draw(context.Background(), surf, markedStills(), now); err != nil {
		t.Fatal(err)
	}

	var texts []op
	for _, o := range surf.ops {
		if o.kind == "text" {
			texts = append(texts, o)
		}
	}
	want := []struct {
		text string
		y    int
	}{
		{"Happy Holidays", l.FooterTop() + 44},
		{"12 • 31 • 2025", l.FooterTop() + 66},
		{"by the booth", l.FooterTop() + 96},
	}
	if len(texts) != len(want) {
		t.Fatalf("got %d footer lines, want %d", len(texts), len(want))
	}
	for i, w := range want {
		if texts[i].text != w.text || texts[i].y != w.y || texts[i].x != l.CenterX() {
			t.Errorf("line %d = %q at (%d,%d), want %q at (%d,%d)",
				i, texts[i].text, texts[i].x, texts[i].y, w.text, l.CenterX(), w.y)
		}
	}
}

func TestDraw_WrongStillCount(t *testing.T) {
	c := NewComposer(DefaultLayout(), DefaultFooter())
	for _, n := range []int{0, 2, 4} {
		err := c.Draw(context.Background(), &recordingSurface{}, make([]frame.Still, n), time.Now())
		if !errors.Is(err, ErrStillCount) {
			t.Errorf("Draw with %d stills = %v, want ErrStillCount", n, err)
		}
	}
}

func TestDraw_DecodeErrorSkipsFooter(t *testing.T) {
	c := NewComposer(DefaultLayout(), DefaultFooter())
	boom := errors.New("corrupt jpeg")
	c.Decode = func(ctx context.Context, st frame.Still) (image.Image, error) {
		if st.Data[0] == 1 {
			return nil, boom
		}
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}
	surf := &recordingSurface{}

	err := c.Draw(context.Background(), surf, markedStills(), time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("Draw error = %v, want %v", err, boom)
	}
	for _, o := range surf.ops {
		if o.kind == "text" {
			t.Fatal("footer must not be drawn when a still fails to decode")
		}
	}
}

// ---------- Raster ----------

func extractedStills(t *testing.T) []frame.Still {
	t.Helper()
	var stills []frame.Still
	for i := 0; i < 3; i++ {
		src := image.NewRGBA(image.Rect(0, 0, 640, 360))
		for y := 0; y < 360; y++ {
			for x := 0; x < 640; x++ {
				src.SetRGBA(x, y, color.RGBA{R: 20, G: uint8(60 * i), B: 160, A: 255})
			}
		}
		st, err := frame.Extract(src, frame.DefaultOptions())
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		stills = append(stills, st)
	}
	return stills
}

func near(c color.Color, want color.RGBA, tol uint32) bool {
	r, g, b, _ := c.RGBA()
	diff := func(a uint32, b uint8) uint32 {
		a >>= 8
		if a > uint32(b) {
			return a - uint32(b)
		}
		return uint32(b) - a
	}
	return diff(r, want.R) <= tol && diff(g, want.G) <= tol && diff(b, want.B) <= tol
}

func TestCompose_Raster(t *testing.T) {
	c := NewComposer(DefaultLayout(), DefaultFooter())
	img, err := c.Compose(context.Background(), extractedStills(t), time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if got := img.Bounds().Size(); got != image.Pt(460, 1475) {
		t.Fatalf("strip size = %v, want 460x1475", got)
	}
	if !near(img.At(2, 2), color.RGBA{255, 255, 255, 255}, 0) {
		t.Errorf("corner pixel = %v, want white", img.At(2, 2))
	}
	if !near(img.At(8, 700), crimson, 0) {
		t.Errorf("border pixel = %v, want crimson", img.At(8, 700))
	}
	// Middle of the first photo carries the still's blue.
	if !near(img.At(230, 230), color.RGBA{R: 20, G: 0, B: 160}, 12) {
		t.Errorf("photo pixel = %v, want ~(20,0,160)", img.At(230, 230))
	}

	// Some footer pixels are inked.
	l := DefaultLayout()
	inked := false
	for y := l.FooterTop() + 10; y < l.FooterTop()+100 && !inked; y++ {
		for x := 60; x < 400; x++ {
			if !near(img.At(x, y), color.RGBA{255, 255, 255, 255}, 30) {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("footer band is blank")
	}
}

func TestRaster_StrokeRect(t *testing.T) {
	r := NewRaster(image.Pt(20, 20))
	r.FillRect(r.Image().Bounds(), color.White)
	r.StrokeRect(image.Rect(5, 5, 15, 15), 2, color.Black)

	black := color.RGBA{A: 255}
	for _, p := range []image.Point{{4, 10}, {5, 10}, {10, 4}, {14, 10}, {10, 14}} {
		if !near(r.Image().At(p.X, p.Y), black, 0) {
			t.Errorf("pixel %v = %v, want black", p, r.Image().At(p.X, p.Y))
		}
	}
	if !near(r.Image().At(10, 10), color.RGBA{255, 255, 255, 255}, 0) {
		t.Error("stroke must not fill the inside")
	}
}
