package button

import (
	"context"
	"time"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
)

// Button is a momentary push button between a GPIO pin and ground.
// The internal pull-up keeps the line HIGH; a press pulls it LOW.
type Button struct {
	gpio     gpio.Driver
	pin      int
	debounce time.Duration
	poll     time.Duration
}

// New configures pin as a pull-up input.
// debounce is how long the line must stay LOW to count as a press.
func New(g gpio.Driver, pin int, debounce time.Duration) *Button {
	_ = g.SetupPin(pin, gpio.InputPullUp)
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	poll := debounce / 5
	if poll < time.Millisecond {
		poll = time.Millisecond
	}
	return &Button{gpio: g, pin: pin, debounce: debounce, poll: poll}
}

// Watch polls the pin until ctx is done and calls onPress once per press,
// on the falling edge after the debounce window. A held button fires once.
func (b *Button) Watch(ctx context.Context, onPress func()) error {
	debug.Verbose("Button: watching pin %d (debounce %v)", b.pin, b.debounce)

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	var lowSince time.Time
	fired := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			level, err := b.gpio.ReadPin(b.pin)
			if err != nil {
				return err
			}
			if level == gpio.High {
				lowSince = time.Time{}
				fired = false
				continue
			}
			if lowSince.IsZero() {
				lowSince = now
			}
			if !fired && now.Sub(lowSince) >= b.debounce {
				fired = true
				debug.Live("Button: pressed (pin %d)", b.pin)
				onPress()
			}
		}
	}
}
