package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/cjeanneret/BoothGo/internal/debug"
)

//go:embed static/*
var staticFiles embed.FS

// shutdownGrace bounds how long open status streams may delay shutdown.
const shutdownGrace = 5 * time.Second

// Server serves the kiosk page and the booth routes.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer binds the booth to addr. The static page is embedded in the binary.
func NewServer(addr string, broadcaster *StatusBroadcaster, b Booth) *Server {
	page, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// static/ is embedded at build time; Sub only fails on a bad name.
		panic(err)
	}
	return &Server{addr: addr, handlers: NewHandlers(broadcaster, b, page)}
}

// Mux registers every route on a fresh ServeMux.
func (s *Server) Mux() http.Handler {
	h := s.handlers
	mux := http.NewServeMux()

	// guest flow
	mux.HandleFunc("POST /start", h.HandleStart)
	mux.HandleFunc("POST /capture", h.HandleCapture)
	mux.HandleFunc("POST /continue", h.HandleContinue)
	mux.HandleFunc("POST /retake", h.HandleRetake)
	mux.HandleFunc("POST /next-guest", h.HandleNextGuest)

	// strip
	mux.HandleFunc("GET /strip.png", h.HandleStrip)
	mux.HandleFunc("GET /download", h.HandleDownload)

	// live feeds
	mux.HandleFunc("GET /state", h.HandleState)
	mux.HandleFunc("GET /camera/preview", h.HandlePreview)
	mux.HandleFunc("GET /status/stream", h.HandleStatusStream)

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	mux.HandleFunc("GET /{$}", h.ServeIndex)
	return mux
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	served := make(chan error, 1)
	go func() {
		debug.Info("Web: kiosk page on http://%s/", s.addr)
		served <- srv.ListenAndServe()
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	grace, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(grace); err != nil {
		debug.Error(err)
		return srv.Close()
	}
	debug.Info("Web: stopped")
	return nil
}
