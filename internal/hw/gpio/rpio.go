package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver drives the booth's button, flash light and DSLR remote lines
// through go-rpio. The button poller and the flash run in their own
// goroutines, so pin bookkeeping is guarded.
type RPiDriver struct {
	mu    sync.Mutex
	pins  map[int]rpio.Pin
	modes map[int]PinMode
}

// NewRPiRealDriver memory-maps the GPIO registers.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	return &RPiDriver{
		pins:  make(map[int]rpio.Pin),
		modes: make(map[int]PinMode),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setup(pin, mode)
}

func (r *RPiDriver) setup(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
		p.PullOff()
	case InputPullUp:
		p.Input()
		p.PullUp()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}

	r.pins[pin] = p
	r.modes[pin] = mode
	return nil
}

// pin returns the configured pin, setting it up with fallback when unknown.
func (r *RPiDriver) pin(pin int, fallback PinMode) (rpio.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pins[pin]; ok {
		return p, nil
	}
	if err := r.setup(pin, fallback); err != nil {
		return 0, err
	}
	return r.pins[pin], nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)

	p, err := r.pin(pin, Output)
	if err != nil {
		return err
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	p, err := r.pin(pin, Input)
	if err != nil {
		return Low, err
	}
	state := p.Read()
	debug.GPIO("ReadPin", pin, state)
	return state == rpio.High, nil
}

// Close parks every used pin as a floating input, then unmaps GPIO memory.
func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	r.mu.Lock()
	defer r.mu.Unlock()
	for pin, p := range r.pins {
		if r.modes[pin] == Output {
			p.Low()
		}
		p.Input()
		p.PullOff()
	}
	return rpio.Close()
}
