package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
	"github.com/cjeanneret/BoothGo/internal/logic/screen"
	"github.com/cjeanneret/BoothGo/internal/logic/session"
)

// ErrBusy is returned by Run while another run is in progress.
var ErrBusy = errors.New("capture already in progress")

// State is the sequencer's position in a run.
type State int

const (
	Idle State = iota
	Counting
	Flashing
	Extracting
	Settling
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Flashing:
		return "flashing"
	case Extracting:
		return "extracting"
	case Settling:
		return "settling"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Observer receives the visual cues of a run. Calls come from the run's
// goroutine, in order.
type Observer interface {
	Progress(shot, total int)         // "Photo i of 3"
	Countdown(n int)                  // 3, 2, 1, then 0 to hide the overlay
	Flash(d time.Duration)            // white flash for d
	Shot(shot int, still frame.Still) // still appended
}

// Flasher fires the physical flash light without blocking.
type Flasher interface {
	Fire(d time.Duration) error
}

// DevelopFunc turns the three stills into a strip.
type DevelopFunc func(ctx context.Context, stills []frame.Still) error

// Deps are the collaborators of a Sequence. Observer and Flash may be nil.
type Deps struct {
	Session  *session.Session
	Screens  *screen.Router
	Observer Observer
	Flash    Flasher
	Develop  DevelopFunc
}

// Params defines the pacing of a run.
type Params struct {
	CountdownFrom int           // first countdown number (3)
	CountdownStep time.Duration // one countdown tick
	FlashDuration time.Duration // flash feedback
	ShotPause     time.Duration // pause between shots, not after the last
	Developing    time.Duration // cosmetic wait before Develop
	Frame         frame.Options // still size and quality
}

// DefaultParams are the booth's usual timings.
func DefaultParams() Params {
	return Params{
		CountdownFrom: 3,
		CountdownStep: time.Second,
		FlashDuration: 300 * time.Millisecond,
		ShotPause:     350 * time.Millisecond,
		Developing:    2 * time.Second,
		Frame:         frame.DefaultOptions(),
	}
}

// Sequence runs countdown -> flash -> extraction until the session holds
// all stills, then settles: camera off, Developing screen, wait, develop.
type Sequence struct {
	deps    Deps
	running atomic.Bool

	mu    sync.Mutex
	state State
}

// NewSequence creates an idle sequencer.
func NewSequence(d Deps) *Sequence {
	return &Sequence{deps: d}
}

// State returns the current state.
func (s *Sequence) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a run is in progress.
func (s *Sequence) Running() bool {
	return s.running.Load()
}

func (s *Sequence) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	debug.Verbose("Sequence: state %s", st)
}

// Run takes the missing stills of the session one after the other. It
// returns ErrBusy without touching anything if a run is already active.
// Shot i+1 never starts before shot i is appended.
func (s *Sequence) Run(ctx context.Context, p Params) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.running.Store(false)

	if p.CountdownFrom <= 0 {
		p.CountdownFrom = 3
	}

	sess := s.deps.Session
	for sess.Index() < session.ShotsPerStrip {
		shot := sess.Index() + 1
		s.observe(func(o Observer) { o.Progress(shot, session.ShotsPerStrip) })

		if err := s.countdown(ctx, p); err != nil {
			s.setState(Idle)
			return err
		}

		s.setState(Flashing)
		s.observe(func(o Observer) { o.Flash(p.FlashDuration) })
		if s.deps.Flash != nil {
			if err := s.deps.Flash.Fire(p.FlashDuration); err != nil {
				debug.Error(fmt.Errorf("flash: %w", err))
			}
		}

		s.setState(Extracting)
		img, err := sess.Camera().Frame(ctx)
		if err != nil {
			s.setState(Idle)
			return fmt.Errorf("photo %d: grab frame: %w", shot, err)
		}
		still, err := frame.Extract(img, p.Frame)
		if err != nil {
			s.setState(Idle)
			return fmt.Errorf("photo %d: %w", shot, err)
		}
		if err := sess.Append(still); err != nil {
			s.setState(Idle)
			return err
		}
		debug.Shot(shot, session.ShotsPerStrip)
		s.observe(func(o Observer) { o.Shot(shot, still) })

		if sess.Index() < session.ShotsPerStrip {
			if err := sleep(ctx, p.ShotPause); err != nil {
				s.setState(Idle)
				return err
			}
		}
	}

	return s.settle(ctx, p)
}

func (s *Sequence) countdown(ctx context.Context, p Params) error {
	s.setState(Counting)
	for n := p.CountdownFrom; n > 0; n-- {
		debug.Countdown(n)
		s.observe(func(o Observer) { o.Countdown(n) })
		if err := sleep(ctx, p.CountdownStep); err != nil {
			return err
		}
	}
	s.observe(func(o Observer) { o.Countdown(0) })
	return nil
}

func (s *Sequence) settle(ctx context.Context, p Params) error {
	s.setState(Settling)

	if err := s.deps.Session.Camera().Release(); err != nil {
		debug.Error(fmt.Errorf("release camera: %w", err))
	}
	if s.deps.Screens != nil {
		_ = s.deps.Screens.Show(screen.Developing)
	}
	if err := sleep(ctx, p.Developing); err != nil {
		s.setState(Idle)
		return err
	}
	if s.deps.Develop != nil {
		if err := s.deps.Develop(ctx, s.deps.Session.Stills()); err != nil {
			s.setState(Idle)
			return fmt.Errorf("develop strip: %w", err)
		}
	}

	s.setState(Done)
	return nil
}

// Reset returns a finished or failed sequencer to Idle. It does nothing
// while a run is active.
func (s *Sequence) Reset() {
	if s.running.Load() {
		return
	}
	s.setState(Idle)
}

func (s *Sequence) observe(fn func(Observer)) {
	if s.deps.Observer != nil {
		fn(s.deps.Observer)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
