package screen

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/BoothGo/internal/debug"
)

// Screen is one of the booth's mutually exclusive UI states.
type Screen int

const (
	Start      Screen = iota // welcome, waiting for a guest
	Camera                   // live preview, countdown, flash
	Developing               // cosmetic wait while the strip is built
	Preview                  // strip drop animation
	Actions                  // download, retake, next guest
)

var names = [...]string{"start", "camera", "developing", "preview", "actions"}

// All lists the valid screens in flow order.
func All() []Screen {
	return []Screen{Start, Camera, Developing, Preview, Actions}
}

// Valid reports whether s is one of the five screens.
func (s Screen) Valid() bool {
	return s >= Start && s <= Actions
}

func (s Screen) String() string {
	if !s.Valid() {
		return fmt.Sprintf("screen(%d)", int(s))
	}
	return names[s]
}

// Parse returns the screen with the given name.
func Parse(name string) (Screen, error) {
	for i, n := range names {
		if n == name {
			return Screen(i), nil
		}
	}
	return 0, fmt.Errorf("unknown screen %q", name)
}

// Listener is told about every activation, including re-showing the
// active screen.
type Listener func(from, to Screen)

// Router keeps exactly one screen active. There is no history: callers
// decide every transition.
type Router struct {
	mu        sync.Mutex
	active    Screen
	listeners []Listener
}

// NewRouter starts on the Start screen.
func NewRouter() *Router {
	return &Router{active: Start}
}

// OnChange registers l.
func (r *Router) OnChange(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Show deactivates every screen and activates s.
func (r *Router) Show(s Screen) error {
	if !s.Valid() {
		return fmt.Errorf("show: %v is not a valid screen", s)
	}
	r.mu.Lock()
	from := r.active
	r.active = s
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	debug.Screen(from.String(), s.String())
	for _, l := range listeners {
		l(from, s)
	}
	return nil
}

// Active returns the active screen.
func (r *Router) Active() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// IsActive reports whether s is the active screen.
func (r *Router) IsActive(s Screen) bool {
	return r.Active() == s
}
