package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/text/language"

	"github.com/cjeanneret/BoothGo/internal/booth"
	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/i18n"
	"github.com/cjeanneret/BoothGo/internal/logic/capture"
	"github.com/cjeanneret/BoothGo/internal/logic/export"
)

// Booth is the controller behind the kiosk page.
type Booth interface {
	Start(ctx context.Context) error
	Capture() bool
	Continue() error
	Retake(ctx context.Context) error
	NextGuest() error
	Download(w http.ResponseWriter, p export.Platform) (export.Result, error)
	WriteStrip(w io.Writer) error
	Preview(ctx context.Context) (image.Image, error)
	Snapshot() booth.State
	SetLanguage(tag language.Tag)
}

// DefaultPreviewInterval paces the MJPEG preview.
const DefaultPreviewInterval = 100 * time.Millisecond

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster     *StatusBroadcaster
	Booth           Booth
	PreviewInterval time.Duration
	staticFS        fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If b is nil, booth routes return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, b Booth, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster:     broadcaster,
		Booth:           b,
		PreviewInterval: DefaultPreviewInterval,
		staticFS:        staticFS,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type statusResponse struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	State  *booth.State `json:"state,omitempty"`
}

func (h *Handlers) ok(w http.ResponseWriter, status string) {
	st := h.Booth.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{Status: status, State: &st})
}

// ignored answers a request that arrived while a capture runs.
func ignored(w http.ResponseWriter) {
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "ignored"})
}

func (h *Handlers) ready(w http.ResponseWriter) bool {
	if h.Booth == nil {
		http.Error(w, "booth not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleState returns the booth snapshot as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.Booth.Snapshot())
}

// HandleStart handles POST /start: Camera screen and camera on.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	tag := i18n.FromRequest(r)
	h.Booth.SetLanguage(tag)
	h.openCamera(w, tag, h.Booth.Start(r.Context()), "started")
}

// HandleRetake handles POST /retake.
func (h *Handlers) HandleRetake(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.openCamera(w, i18n.FromRequest(r), h.Booth.Retake(r.Context()), "retake")
}

func (h *Handlers) openCamera(w http.ResponseWriter, tag language.Tag, err error, status string) {
	switch {
	case err == nil:
		h.ok(w, status)
	case errors.Is(err, capture.ErrBusy):
		ignored(w)
	case errors.Is(err, camera.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Status: "camera_unavailable",
			Error:  i18n.T(tag, i18n.MsgCameraUnavailable),
		})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleCapture handles POST /capture. A request during a run is accepted
// and ignored.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if !h.Booth.Capture() {
		ignored(w)
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "started"})
}

// HandleContinue handles POST /continue: Preview -> Actions.
func (h *Handlers) HandleContinue(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Booth.Continue(); err != nil {
		if errors.Is(err, booth.ErrWrongScreen) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.ok(w, "actions")
}

// HandleNextGuest handles POST /next-guest.
func (h *Handlers) HandleNextGuest(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Booth.NextGuest(); err != nil {
		if errors.Is(err, capture.ErrBusy) {
			ignored(w)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.ok(w, "reset")
}

// HandleStrip serves the developed strip inline for the preview screen.
func (h *Handlers) HandleStrip(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var buf bytes.Buffer
	if err := h.Booth.WriteStrip(&buf); err != nil {
		if errors.Is(err, booth.ErrNoStrip) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// HandleDownload exports the strip: a file download, or a long-press page
// on mobile Safari. The page passes navigator.platform and maxTouchPoints
// as query parameters.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	res, err := h.Booth.Download(w, export.PlatformFromRequest(r))
	if err != nil {
		if errors.Is(err, booth.ErrNoStrip) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		// Headers may already be out; log only.
		debug.Error(err)
		return
	}
	debug.Live("Download: %s (manual save: %v)", res.Filename, res.ManualSave)
}

// HandlePreview streams the live camera as MJPEG until the camera is
// released or the client leaves.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	img, err := h.Booth.Preview(ctx)
	if err != nil {
		http.Error(w, "camera not live", http.StatusServiceUnavailable)
		return
	}

	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	interval := h.PreviewInterval
	if interval <= 0 {
		interval = DefaultPreviewInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	encode := imgio.JPEGEncoder(75)
	var buf bytes.Buffer
	for frames := 0; ; frames++ {
		buf.Reset()
		if err := encode(&buf, img); err != nil {
			debug.Error(fmt.Errorf("preview: %w", err))
			return
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {fmt.Sprint(buf.Len())},
		})
		if err != nil {
			return
		}
		if _, err := part.Write(buf.Bytes()); err != nil {
			return
		}
		flusher.Flush()
		debug.Trace("Preview: frame %d (%d bytes)", frames, buf.Len())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		img, err = h.Booth.Preview(ctx)
		if err != nil {
			debug.Verbose("Preview: stream ended: %v", err)
			mw.Close()
			return
		}
	}
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	if h.Booth != nil {
		// Resync a page that reconnects mid-session.
		st := h.Booth.Snapshot()
		if data, err := json.Marshal(StatusEvent{
			Time:  time.Now().Format(time.RFC3339),
			Event: booth.Event{Kind: booth.KindScreen, Screen: st.Screen},
		}); err == nil {
			w.Write([]byte("data: " + string(data) + "\n\n"))
		}
	}
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
