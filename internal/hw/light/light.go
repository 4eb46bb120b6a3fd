package light

import (
	"sync"
	"time"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
)

// Flash drives a strobe or LED panel wired to one output pin (active HIGH).
// A zero pin disables the hardware; Fire then only logs.
type Flash struct {
	gpio gpio.Driver
	pin  int

	mu    sync.Mutex
	timer *time.Timer
}

// NewFlash configures pin as an output and switches the light off.
func NewFlash(g gpio.Driver, pin int) *Flash {
	if pin > 0 {
		_ = g.SetupPin(pin, gpio.Output)
		_ = g.WritePin(pin, gpio.Low)
	}
	return &Flash{gpio: g, pin: pin}
}

// Fire turns the light on and schedules it off after d. It does not block,
// so the frame is grabbed while the light is still on. A second Fire while
// lit restarts the timer.
func (f *Flash) Fire(d time.Duration) error {
	if f == nil || f.pin <= 0 {
		return nil
	}
	debug.Verbose("Flash: on for %v (pin %d)", d, f.pin)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gpio.WritePin(f.pin, gpio.High); err != nil {
		return err
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(d, func() {
		_ = f.Off()
	})
	return nil
}

// Off switches the light off immediately.
func (f *Flash) Off() error {
	if f == nil || f.pin <= 0 {
		return nil
	}
	return f.gpio.WritePin(f.pin, gpio.Low)
}
