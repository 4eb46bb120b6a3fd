package booth

// Event kinds pushed to the kiosk page.
const (
	KindScreen    = "screen"    // Screen is now active
	KindProgress  = "progress"  // "Photo Shot of Total"
	KindCountdown = "countdown" // Count on screen, 0 hides the overlay
	KindFlash     = "flash"     // white flash for DurationMs
	KindShot      = "shot"      // still Shot appended
	KindAlert     = "alert"     // blocking message for the guest
	KindHint      = "hint"      // save hint, empty Msg hides it
	KindDrop      = "drop"      // strip drop animation
)

// Event is one UI update.
type Event struct {
	Kind       string `json:"kind"`
	Screen     string `json:"screen,omitempty"`
	Shot       int    `json:"shot,omitempty"`
	Total      int    `json:"total,omitempty"`
	Count      int    `json:"count,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Msg        string `json:"msg,omitempty"`
}

// Notifier delivers events to whoever renders the booth.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
