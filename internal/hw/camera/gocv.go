//go:build gocv

package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/cjeanneret/BoothGo/internal/debug"
)

// GoCVSupported reports whether this binary was built with the gocv tag.
const GoCVSupported = true

// GoCV is a USB/V4L2 webcam opened through OpenCV.
type GoCV struct {
	DeviceID int
}

// NewGoCV returns a webcam source for the given device index.
func NewGoCV(deviceID int) (Source, error) {
	return GoCV{DeviceID: deviceID}, nil
}

// Open starts the capture and asks for the ideal frame size.
func (g GoCV) Open(ctx context.Context, c Constraints) (Stream, error) {
	vc, err := gocv.OpenVideoCapture(g.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("open video device %d: %w", g.DeviceID, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("video device %d not opened", g.DeviceID)
	}
	if c.IdealWidth > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.IdealWidth))
	}
	if c.IdealHeight > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.IdealHeight))
	}
	debug.Verbose("GoCV: device %d opened at %.0fx%.0f", g.DeviceID,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))

	return &gocvStream{vc: vc, mat: gocv.NewMat()}, nil
}

type gocvStream struct {
	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

func (s *gocvStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vc == nil {
		return nil, ErrNotAcquired
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("read frame: device returned no data")
	}
	return s.mat.ToImage()
}

func (s *gocvStream) Preview(ctx context.Context) (image.Image, error) {
	return s.Frame(ctx)
}

func (s *gocvStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vc == nil {
		return nil
	}
	_ = s.mat.Close()
	err := s.vc.Close()
	s.vc = nil
	return err
}
