package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cjeanneret/BoothGo/internal/debug"
)

var (
	// ErrUnavailable reports that no stream could be opened: permission
	// denied, no device, or the device is busy.
	ErrUnavailable = errors.New("camera unavailable")
	// ErrNotAcquired is returned when frames are requested with no stream held.
	ErrNotAcquired = errors.New("camera not acquired")
	// ErrNoPreview is returned by sources that cannot stream a live view.
	ErrNoPreview = errors.New("live preview not supported")
)

// Facing selects which camera to use on devices that have several.
type Facing int

const (
	FacingUser        Facing = iota // front camera, the guest sees themselves
	FacingEnvironment               // rear camera
)

// Constraints describe the stream the booth asks for.
// Width and height are preferences; sources pick the closest mode.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
	Audio       bool
}

// DefaultConstraints asks for a user-facing 1280x720 stream without audio.
func DefaultConstraints() Constraints {
	return Constraints{
		Facing:      FacingUser,
		IdealWidth:  1280,
		IdealHeight: 720,
	}
}

// Source opens streams. It represents an abstract camera, regardless of how
// it is reached (V4L2, tethered DSLR, synthetic pattern, etc.).
type Source interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an open camera.
type Stream interface {
	// Frame returns a full-resolution frame for a still.
	Frame(ctx context.Context) (image.Image, error)
	// Preview returns a live-view frame, or ErrNoPreview.
	Preview(ctx context.Context) (image.Image, error)
	// Stop releases the underlying device.
	Stop() error
}

// Device holds at most one open stream from a Source.
type Device struct {
	source      Source
	constraints Constraints

	mu     sync.Mutex
	stream Stream
}

// NewDevice returns a Device that opens streams from src with c.
func NewDevice(src Source, c Constraints) *Device {
	return &Device{source: src, constraints: c}
}

// Acquire opens a stream. Any stream already held is stopped first, so
// reacquiring never leaks a device handle. On failure nothing is held and
// the error wraps ErrUnavailable.
func (d *Device) Acquire(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		if err := d.stopLocked(); err != nil {
			debug.Error(fmt.Errorf("stop previous stream: %w", err))
		}
	}

	debug.Verbose("Camera: requesting stream %+v", d.constraints)
	s, err := d.source.Open(ctx, d.constraints)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	d.stream = s
	debug.Live("Camera: stream acquired")
	return nil
}

// Release stops the held stream and clears the handle.
// It is safe to call when nothing is held.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return nil
	}
	return d.stopLocked()
}

func (d *Device) stopLocked() error {
	s := d.stream
	d.stream = nil
	debug.Live("Camera: stream released")
	return s.Stop()
}

// Active reports whether a stream is held.
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream != nil
}

// Frame grabs a frame from the held stream.
func (d *Device) Frame(ctx context.Context) (image.Image, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotAcquired
	}
	return s.Frame(ctx)
}

// Preview grabs a live-view frame from the held stream.
func (d *Device) Preview(ctx context.Context) (image.Image, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotAcquired
	}
	return s.Preview(ctx)
}

func (d *Device) current() Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream
}
