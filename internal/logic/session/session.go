// Package session holds the state of one photobooth run.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
)

// ShotsPerStrip is the number of stills in a strip.
const ShotsPerStrip = 3

// ErrFull is returned when a fourth still is appended.
var ErrFull = errors.New("session already has all stills")

// Session owns the stills of the current guest, the capture index and the
// camera whose stream it holds. The stream handle lives in the Device and is
// only non-nil while the Camera screen is up.
type Session struct {
	mu     sync.Mutex
	id     uuid.UUID
	stills []frame.Still
	camera *camera.Device
}

// New returns an empty session bound to cam.
func New(cam *camera.Device) *Session {
	return &Session{id: uuid.New(), camera: cam}
}

// ID identifies the current guest. It changes on every Reset.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Camera returns the device the session captures from.
func (s *Session) Camera() *camera.Device {
	return s.camera
}

// Append adds the next still in capture order.
func (s *Session) Append(st frame.Still) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stills) >= ShotsPerStrip {
		return fmt.Errorf("append still %d: %w", len(s.stills)+1, ErrFull)
	}
	s.stills = append(s.stills, st)
	return nil
}

// Index is the number of stills taken so far (0-3).
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stills)
}

// Complete reports whether all stills have been taken.
func (s *Session) Complete() bool {
	return s.Index() == ShotsPerStrip
}

// Stills returns a copy of the stills in capture order.
func (s *Session) Stills() []frame.Still {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]frame.Still(nil), s.stills...)
}

// Reset drops all stills and starts a new guest ID. The camera is left as is;
// callers release or reacquire it explicitly.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stills = nil
	s.id = uuid.New()
}
