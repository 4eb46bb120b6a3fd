package camera

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/fsnotify/fsnotify"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
)

// Tethered is a DSLR fired through its 3-pin remote connector
// (Nikon D90 style) whose pictures land in WatchDir through a tether
// tool such as gphoto2 --capture-tethered:
// - GND: connected to Raspberry Pi ground
// - FOCUS: autofocus (activate by setting to LOW)
// - SHUTTER: trigger (activate by setting to LOW)
//
// Trigger sequence:
// 1. FOCUS to LOW (activates autofocus)
// 2. Wait for autofocus to complete
// 3. SHUTTER to LOW (triggers the shot)
// 4. Hold for a moment
// 5. Set SHUTTER and FOCUS back to HIGH
//
// The camera has no live view over this link; Preview returns the last shot.
type Tethered struct {
	GPIO         gpio.Driver
	WatchDir     string
	FocusPin     int
	ShutterPin   int
	FocusDelay   time.Duration // time for autofocus
	ShutterDelay time.Duration // shutter hold time
	FrameTimeout time.Duration // how long to wait for the file to land
}

// Open configures the remote lines and starts watching WatchDir.
func (t Tethered) Open(ctx context.Context, c Constraints) (Stream, error) {
	if c.Facing != FacingUser {
		debug.Verbose("Tethered: facing mode ignored, DSLR points where it is mounted")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(t.WatchDir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", t.WatchDir, err)
	}

	if t.FocusPin > 0 {
		_ = t.GPIO.SetupPin(t.FocusPin, gpio.Output)
		_ = t.GPIO.WritePin(t.FocusPin, gpio.High)
	}
	if err := t.GPIO.SetupPin(t.ShutterPin, gpio.Output); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("setup shutter pin %d: %w", t.ShutterPin, err)
	}
	// By default, lines are HIGH (inactive)
	_ = t.GPIO.WritePin(t.ShutterPin, gpio.High)

	timeout := t.FrameTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &tetheredStream{cfg: t, watcher: w, timeout: timeout}, nil
}

type tetheredStream struct {
	cfg     Tethered
	watcher *fsnotify.Watcher
	timeout time.Duration

	mu sync.Mutex // one shot at a time

	lastMu sync.Mutex
	last   image.Image
}

// Frame fires the shutter and waits for the new picture file.
func (s *tetheredStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drain()
	if err := s.shoot(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var pending string
	for {
		select {
		case <-ctx.Done():
			if pending != "" {
				return nil, fmt.Errorf("decode %s: %w", pending, ctx.Err())
			}
			return nil, fmt.Errorf("wait for tethered frame: %w", ctx.Err())
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil, ErrNotAcquired
			}
			return nil, fmt.Errorf("watch %s: %w", s.cfg.WatchDir, err)
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil, ErrNotAcquired
			}
			if (!ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write)) || !isImageFile(ev.Name) {
				continue
			}
			pending = ev.Name
			// The tether tool may still be writing; a failed decode waits
			// for the next Write on the same file.
			img, err := imgio.Open(ev.Name)
			if err != nil {
				debug.Trace("Tethered: %s not ready: %v", ev.Name, err)
				continue
			}
			debug.Verbose("Tethered: got frame %s (%v)", ev.Name, img.Bounds())
			s.lastMu.Lock()
			s.last = img
			s.lastMu.Unlock()
			return img, nil
		}
	}
}

// drain discards events left over from earlier shots.
func (s *tetheredStream) drain() {
	for {
		select {
		case <-s.watcher.Events:
		case <-s.watcher.Errors:
		default:
			return
		}
	}
}

// shoot runs the remote sequence: FOCUS -> wait for AF -> SHUTTER -> hold -> release.
func (s *tetheredStream) shoot() error {
	g := s.cfg.GPIO
	debug.Printf("Tethered: triggering shot (focus=%d, shutter=%d)", s.cfg.FocusPin, s.cfg.ShutterPin)

	if s.cfg.FocusPin > 0 {
		if err := g.WritePin(s.cfg.FocusPin, gpio.Low); err != nil {
			return err
		}
		time.Sleep(s.cfg.FocusDelay)
	}

	if err := g.WritePin(s.cfg.ShutterPin, gpio.Low); err != nil {
		if s.cfg.FocusPin > 0 {
			_ = g.WritePin(s.cfg.FocusPin, gpio.High)
		}
		return err
	}
	time.Sleep(s.cfg.ShutterDelay)

	if err := g.WritePin(s.cfg.ShutterPin, gpio.High); err != nil {
		return err
	}
	if s.cfg.FocusPin > 0 {
		if err := g.WritePin(s.cfg.FocusPin, gpio.High); err != nil {
			return err
		}
	}
	return nil
}

func (s *tetheredStream) Preview(ctx context.Context) (image.Image, error) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	if s.last == nil {
		return nil, ErrNoPreview
	}
	return s.last, nil
}

func (s *tetheredStream) Stop() error {
	return s.watcher.Close()
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
