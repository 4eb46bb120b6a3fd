// Package booth drives one photobooth: the guest walks Start -> Camera ->
// Developing -> Preview -> Actions and loops back via retake or next guest.
package booth

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/i18n"
	"github.com/cjeanneret/BoothGo/internal/logic/capture"
	"github.com/cjeanneret/BoothGo/internal/logic/export"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
	"github.com/cjeanneret/BoothGo/internal/logic/screen"
	"github.com/cjeanneret/BoothGo/internal/logic/session"
	"github.com/cjeanneret/BoothGo/internal/logic/strip"
)

var (
	// ErrNoStrip is returned when there is nothing to export yet.
	ErrNoStrip = errors.New("no strip developed")
	// ErrWrongScreen is returned by operations not offered on the active screen.
	ErrWrongScreen = errors.New("not available on this screen")
	// ErrCompose marks a failure while developing the strip.
	ErrCompose = errors.New("strip composition failed")
)

// Options configures a Booth. Zero values fall back to defaults.
type Options struct {
	Params   capture.Params
	Layout   strip.Layout
	Footer   strip.Footer
	Lang     language.Tag
	Flash    capture.Flasher
	Notifier Notifier
	Now      func() time.Time
}

// Booth is the top-level controller. Every transition is serialized; the
// capture run happens in the background, one at a time.
type Booth struct {
	base     context.Context
	params   capture.Params
	notify   Notifier
	now      func() time.Time
	screens  *screen.Router
	session  *session.Session
	seq      *capture.Sequence
	composer *strip.Composer
	wg       sync.WaitGroup

	mu        sync.Mutex
	capturing bool
	strip     *image.RGBA
	hint      bool
	lang      language.Tag
}

// New returns a booth on the Start screen capturing from dev. Background
// runs use ctx and stop when it is cancelled.
func New(ctx context.Context, dev *camera.Device, opts Options) *Booth {
	if opts.Params.CountdownFrom == 0 {
		opts.Params = capture.DefaultParams()
	}
	if opts.Layout.Photos == 0 {
		opts.Layout = strip.DefaultLayout()
	}
	if opts.Footer == (strip.Footer{}) {
		opts.Footer = strip.DefaultFooter()
	}
	if opts.Lang == language.Und {
		opts.Lang = i18n.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Booth{
		base:     ctx,
		params:   opts.Params,
		notify:   opts.Notifier,
		now:      opts.Now,
		screens:  screen.NewRouter(),
		session:  session.New(dev),
		composer: strip.NewComposer(opts.Layout, opts.Footer),
		lang:     opts.Lang,
	}
	b.seq = capture.NewSequence(capture.Deps{
		Session:  b.session,
		Screens:  b.screens,
		Observer: observer{b},
		Flash:    opts.Flash,
		Develop:  b.develop,
	})
	b.screens.OnChange(func(from, to screen.Screen) {
		b.notify.Notify(Event{Kind: KindScreen, Screen: to.String()})
	})
	return b
}

// SetLanguage selects the language of alerts and hints.
func (b *Booth) SetLanguage(tag language.Tag) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lang = tag
}

func (b *Booth) text(key string, args ...any) string {
	b.mu.Lock()
	lang := b.lang
	b.mu.Unlock()
	return i18n.T(lang, key, args...)
}

// Start shows the Camera screen and opens the camera. If the camera cannot
// be opened the guest gets an alert and lands back on Start with an empty
// session.
func (b *Booth) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capturing {
		return capture.ErrBusy
	}
	debug.Summary("New guest")
	return b.openCameraLocked(ctx)
}

// openCameraLocked resets the session, shows Camera and acquires the device.
func (b *Booth) openCameraLocked(ctx context.Context) error {
	b.resetLocked()
	_ = b.screens.Show(screen.Camera)

	if err := b.session.Camera().Acquire(ctx); err != nil {
		debug.Error(fmt.Errorf("start: %w", err))
		b.notify.Notify(Event{Kind: KindAlert, Msg: i18n.T(b.lang, i18n.MsgCameraUnavailable)})
		_ = b.screens.Show(screen.Start)
		return err
	}
	b.notify.Notify(Event{
		Kind:  KindProgress,
		Shot:  1,
		Total: session.ShotsPerStrip,
		Msg:   i18n.T(b.lang, i18n.MsgProgress, 1, session.ShotsPerStrip),
	})
	debug.Info("Booth: guest %s ready", b.session.ID())
	return nil
}

// Capture starts the three-shot run in the background. It returns false,
// doing nothing, while a run is active or the camera is not live.
func (b *Booth) Capture() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capturing || b.seq.Running() {
		debug.Verbose("Booth: capture ignored, run in progress")
		return false
	}
	if !b.screens.IsActive(screen.Camera) || !b.session.Camera().Active() {
		debug.Verbose("Booth: capture ignored, camera not live")
		return false
	}
	b.capturing = true
	b.wg.Add(1)
	go b.runCapture()
	return true
}

func (b *Booth) runCapture() {
	defer b.wg.Done()
	err := b.seq.Run(b.base, b.params)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.capturing = false

	switch {
	case err == nil:
		debug.Info("Booth: strip ready for guest %s", b.session.ID())
	case errors.Is(err, capture.ErrBusy):
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		debug.Info("Booth: capture stopped: %v", err)
		b.releaseLocked()
	default:
		debug.Error(err)
		msg := i18n.MsgCaptureFailed
		if errors.Is(err, ErrCompose) {
			msg = i18n.MsgComposeFailed
		}
		b.notify.Notify(Event{Kind: KindAlert, Msg: i18n.T(b.lang, msg)})
		b.releaseLocked()
		b.resetLocked()
		_ = b.screens.Show(screen.Start)
	}
}

// develop runs on the capture goroutine once the camera is off and the
// Developing screen is up.
func (b *Booth) develop(ctx context.Context, stills []frame.Still) error {
	img, err := b.composer.Compose(ctx, stills, b.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompose, err)
	}
	b.mu.Lock()
	b.strip = img
	b.mu.Unlock()

	_ = b.screens.Show(screen.Preview)
	b.notify.Notify(Event{Kind: KindDrop})
	return nil
}

// Continue moves from the strip preview to the actions screen.
func (b *Booth) Continue() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.screens.IsActive(screen.Preview) {
		return fmt.Errorf("continue from %s: %w", b.screens.Active(), ErrWrongScreen)
	}
	return b.screens.Show(screen.Actions)
}

// Download exports the strip to w. On mobile Safari the guest gets a page
// to long-press instead of a file, and the booth page shows a hint.
func (b *Booth) Download(w http.ResponseWriter, p export.Platform) (export.Result, error) {
	b.mu.Lock()
	img, lang := b.strip, b.lang
	b.mu.Unlock()
	if img == nil {
		return export.Result{}, ErrNoStrip
	}

	res, err := export.Exporter{Lang: lang}.Export(w, img, p, b.now())
	if err != nil {
		return res, fmt.Errorf("download: %w", err)
	}
	if res.ManualSave {
		b.mu.Lock()
		b.hint = true
		b.mu.Unlock()
		b.notify.Notify(Event{Kind: KindHint, Msg: i18n.T(lang, i18n.MsgSaveHint)})
	}
	return res, nil
}

// WriteStrip writes the developed strip as PNG.
func (b *Booth) WriteStrip(w io.Writer) error {
	b.mu.Lock()
	img := b.strip
	b.mu.Unlock()
	if img == nil {
		return ErrNoStrip
	}
	return export.Encode(w, img)
}

// Save writes the developed strip into dir and returns its path.
func (b *Booth) Save(dir string) (string, error) {
	b.mu.Lock()
	img := b.strip
	b.mu.Unlock()
	if img == nil {
		return "", ErrNoStrip
	}
	return export.SaveFile(dir, img, b.now())
}

// Retake drops the strip and stills, reopens the camera and shows Camera.
func (b *Booth) Retake(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capturing {
		return capture.ErrBusy
	}
	debug.Info("Booth: retake for guest %s", b.session.ID())
	b.releaseLocked()
	return b.openCameraLocked(ctx)
}

// NextGuest drops everything, turns the camera off and shows Start.
func (b *Booth) NextGuest() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capturing {
		return capture.ErrBusy
	}
	b.releaseLocked()
	b.resetLocked()
	return b.screens.Show(screen.Start)
}

// Press handles the physical trigger: it starts a session from Start or
// Actions and captures on Camera. Elsewhere it does nothing.
func (b *Booth) Press(ctx context.Context) {
	switch b.screens.Active() {
	case screen.Start, screen.Actions:
		if err := b.Start(ctx); err != nil {
			debug.Error(fmt.Errorf("button: %w", err))
		}
	case screen.Camera:
		b.Capture()
	}
}

// Preview returns a live frame while the camera is on.
func (b *Booth) Preview(ctx context.Context) (image.Image, error) {
	return b.session.Camera().Preview(ctx)
}

// Wait blocks until background runs have finished.
func (b *Booth) Wait() {
	b.wg.Wait()
}

// Close turns the camera off.
func (b *Booth) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Camera().Release()
}

func (b *Booth) releaseLocked() {
	if err := b.session.Camera().Release(); err != nil {
		debug.Error(fmt.Errorf("release camera: %w", err))
	}
}

func (b *Booth) resetLocked() {
	b.session.Reset()
	b.seq.Reset()
	b.strip = nil
	if b.hint {
		b.hint = false
		b.notify.Notify(Event{Kind: KindHint})
	}
}

// State is what the kiosk page needs to redraw itself after a reconnect.
type State struct {
	Screen    string `json:"screen"`
	Photos    int    `json:"photos"`
	Total     int    `json:"total"`
	Capturing bool   `json:"capturing"`
	Sequence  string `json:"sequence"`
	HasStrip  bool   `json:"has_strip"`
	Hint      bool   `json:"hint"`
	Guest     string `json:"guest"`
	Progress  string `json:"progress"`
}

// Snapshot returns the current state.
func (b *Booth) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	photos := b.session.Index()
	next := min(photos+1, session.ShotsPerStrip)
	return State{
		Screen:    b.screens.Active().String(),
		Photos:    photos,
		Total:     session.ShotsPerStrip,
		Capturing: b.capturing,
		Sequence:  b.seq.State().String(),
		HasStrip:  b.strip != nil,
		Hint:      b.hint,
		Guest:     b.session.ID().String(),
		Progress:  i18n.T(b.lang, i18n.MsgProgress, next, session.ShotsPerStrip),
	}
}

// observer turns sequencer cues into page events.
type observer struct{ b *Booth }

func (o observer) Progress(shot, total int) {
	o.b.notify.Notify(Event{
		Kind:  KindProgress,
		Shot:  shot,
		Total: total,
		Msg:   o.b.text(i18n.MsgProgress, shot, total),
	})
}

func (o observer) Countdown(n int) {
	o.b.notify.Notify(Event{Kind: KindCountdown, Count: n})
}

func (o observer) Flash(d time.Duration) {
	o.b.notify.Notify(Event{Kind: KindFlash, DurationMs: d.Milliseconds()})
}

func (o observer) Shot(shot int, still frame.Still) {
	o.b.notify.Notify(Event{Kind: KindShot, Shot: shot, Total: session.ShotsPerStrip})
}
