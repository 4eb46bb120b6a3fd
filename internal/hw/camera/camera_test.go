package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
)

// ---------- Device ----------

// fakeSource counts opens and can be told to fail.
type fakeSource struct {
	mu      sync.Mutex
	err     error
	opened  int
	streams []*fakeStream
	got     Constraints
}

func (f *fakeSource) Open(ctx context.Context, c Constraints) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = c
	if f.err != nil {
		return nil, f.err
	}
	f.opened++
	s := &fakeStream{}
	f.streams = append(f.streams, s)
	return s, nil
}

type fakeStream struct {
	stops int
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
}

func (s *fakeStream) Preview(ctx context.Context) (image.Image, error) { return s.Frame(ctx) }

func (s *fakeStream) Stop() error {
	s.stops++
	return nil
}

func TestDevice_AcquirePassesConstraints(t *testing.T) {
	src := &fakeSource{}
	d := NewDevice(src, DefaultConstraints())
	if err := d.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	want := Constraints{Facing: FacingUser, IdealWidth: 1280, IdealHeight: 720, Audio: false}
	if src.got != want {
		t.Errorf("constraints = %+v, want %+v", src.got, want)
	}
	if !d.Active() {
		t.Error("device should be active after Acquire")
	}
}

func TestDevice_AcquireFailureHoldsNothing(t *testing.T) {
	src := &fakeSource{err: errors.New("permission denied")}
	d := NewDevice(src, DefaultConstraints())

	err := d.Acquire(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Acquire error = %v, want ErrUnavailable", err)
	}
	if d.Active() {
		t.Error("device must not hold a stream after a failed Acquire")
	}
	if _, err := d.Frame(context.Background()); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("Frame error = %v, want ErrNotAcquired", err)
	}
}

func TestDevice_ReleaseIdempotent(t *testing.T) {
	src := &fakeSource{}
	d := NewDevice(src, DefaultConstraints())

	if err := d.Release(); err != nil {
		t.Fatalf("Release with nothing held: %v", err)
	}
	if err := d.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.Release(); err != nil {
			t.Fatalf("Release #%d: %v", i+1, err)
		}
	}
	if src.streams[0].stops != 1 {
		t.Errorf("stream stopped %d times, want 1", src.streams[0].stops)
	}
	if d.Active() {
		t.Error("device should be inactive after Release")
	}
}

func TestDevice_ReacquireStopsPrevious(t *testing.T) {
	src := &fakeSource{}
	d := NewDevice(src, DefaultConstraints())

	ctx := context.Background()
	if err := d.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if src.opened != 2 {
		t.Fatalf("opened = %d, want 2", src.opened)
	}
	if src.streams[0].stops != 1 {
		t.Errorf("first stream stops = %d, want 1 (no leaked handle)", src.streams[0].stops)
	}
	if src.streams[1].stops != 0 {
		t.Errorf("second stream stops = %d, want 0", src.streams[1].stops)
	}
}

// ---------- Pattern ----------

func TestPattern_UsesConstraintSize(t *testing.T) {
	s, err := Pattern{}.Open(context.Background(), DefaultConstraints())
	if err != nil {
		t.Fatal(err)
	}
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(1280, 720) {
		t.Errorf("frame size = %v, want 1280x720", got)
	}
}

func TestPattern_StoppedStreamFails(t *testing.T) {
	s, _ := Pattern{Width: 32, Height: 18}.Open(context.Background(), DefaultConstraints())
	_ = s.Stop()
	if _, err := s.Frame(context.Background()); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("Frame after Stop = %v, want ErrNotAcquired", err)
	}
}

// ---------- Tethered ----------

type gpioCall struct {
	pin   int
	level gpio.Level
}

// shutterDriver records writes and drops a JPEG into dir when the shutter is released.
type shutterDriver struct {
	mu         sync.Mutex
	calls      []gpioCall
	shutterPin int
	dir        string
	shots      int
}

func (d *shutterDriver) SetupPin(pin int, mode gpio.PinMode) error { return nil }

func (d *shutterDriver) WritePin(pin int, level gpio.Level) error {
	d.mu.Lock()
	d.calls = append(d.calls, gpioCall{pin, level})
	fire := pin == d.shutterPin && level == gpio.Low && d.dir != ""
	if fire {
		d.shots++
	}
	n := d.shots
	d.mu.Unlock()

	if fire {
		go writeJPEG(d.dir, n)
	}
	return nil
}

func (d *shutterDriver) ReadPin(pin int) (gpio.Level, error) { return gpio.High, nil }

func (d *shutterDriver) Close() error { return nil }

func writeJPEG(dir string, n int) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	tmp := filepath.Join(dir, ".partial")
	f, err := os.Create(tmp)
	if err != nil {
		return
	}
	_ = jpeg.Encode(f, img, nil)
	_ = f.Close()
	_ = os.Rename(tmp, filepath.Join(dir, "DSC_000"+string(rune('0'+n))+".JPG"))
}

func newTethered(drv gpio.Driver, dir string) Tethered {
	return Tethered{
		GPIO:         drv,
		WatchDir:     dir,
		FocusPin:     24,
		ShutterPin:   25,
		FocusDelay:   time.Microsecond,
		ShutterDelay: time.Microsecond,
		FrameTimeout: 5 * time.Second,
	}
}

func TestTethered_ShootSequence(t *testing.T) {
	drv := &shutterDriver{shutterPin: 25}
	dir := t.TempDir()
	s, err := newTethered(drv, dir).Open(context.Background(), DefaultConstraints())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Stop()

	drv.calls = nil // reset after init
	if err := s.(*tetheredStream).shoot(); err != nil {
		t.Fatalf("shoot: %v", err)
	}

	expected := []struct {
		pin   int
		level gpio.Level
		desc  string
	}{
		{24, gpio.Low, "focus LOW (activate AF)"},
		{25, gpio.Low, "shutter LOW (trigger)"},
		{25, gpio.High, "shutter HIGH (release)"},
		{24, gpio.High, "focus HIGH (release)"},
	}
	if len(drv.calls) != len(expected) {
		t.Fatalf("expected %d writes, got %d: %v", len(expected), len(drv.calls), drv.calls)
	}
	for i, exp := range expected {
		if drv.calls[i].pin != exp.pin || drv.calls[i].level != exp.level {
			t.Errorf("step %d (%s): pin=%d level=%v, want pin=%d level=%v",
				i, exp.desc, drv.calls[i].pin, drv.calls[i].level, exp.pin, exp.level)
		}
	}
}

func TestTethered_FrameWaitsForFile(t *testing.T) {
	dir := t.TempDir()
	drv := &shutterDriver{shutterPin: 25, dir: dir}
	s, err := newTethered(drv, dir).Open(context.Background(), DefaultConstraints())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Stop()

	if _, err := s.Preview(context.Background()); !errors.Is(err, ErrNoPreview) {
		t.Errorf("Preview before first shot = %v, want ErrNoPreview", err)
	}

	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(60, 40) {
		t.Errorf("frame size = %v, want 60x40", got)
	}

	prev, err := s.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview after shot: %v", err)
	}
	if prev != img {
		t.Error("Preview should return the last shot")
	}
}

func TestTethered_FrameTimeout(t *testing.T) {
	drv := &shutterDriver{shutterPin: 25} // never writes a file
	cfg := newTethered(drv, t.TempDir())
	cfg.FrameTimeout = 20 * time.Millisecond

	s, err := cfg.Open(context.Background(), DefaultConstraints())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if _, err := s.Frame(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Frame error = %v, want deadline exceeded", err)
	}
}

func TestTethered_MissingDirUnavailable(t *testing.T) {
	drv := &shutterDriver{shutterPin: 25}
	d := NewDevice(newTethered(drv, filepath.Join(t.TempDir(), "missing")), DefaultConstraints())
	if err := d.Acquire(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Acquire error = %v, want ErrUnavailable", err)
	}
}

func TestIsImageFile(t *testing.T) {
	cases := map[string]bool{
		"DSC_0001.JPG": true,
		"a.jpeg":       true,
		"b.png":        true,
		"c.NEF":        false,
		".partial":     false,
	}
	for name, want := range cases {
		if got := isImageFile(name); got != want {
			t.Errorf("isImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}
