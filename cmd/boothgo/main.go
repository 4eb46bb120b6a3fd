package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/BoothGo/internal/booth"
	"github.com/cjeanneret/BoothGo/internal/config"
	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/hw/button"
	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
	"github.com/cjeanneret/BoothGo/internal/hw/light"
	"github.com/cjeanneret/BoothGo/internal/logic/capture"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
	"github.com/cjeanneret/BoothGo/internal/logic/strip"
	"github.com/cjeanneret/BoothGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start the kiosk page on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	outDir := flag.String("out", "", "headless mode: folder the strip is written to (default from config)")
	countdownMs := flag.Int("countdown_ms", 0, "override one countdown tick in ms (1-10000)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (zero means "use config default")
	if err := validateCLIOverrides(*countdownMs); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *countdownMs, *outDir)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.GPIO.Mock)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.GPIO.Mock)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Initialize camera
	debug.Step(2, "Initializing camera")
	src, err := newSourceFromConfig(gpioDriver, cfg)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	debug.PrintStruct("Camera config", cfg.Camera)
	dev := camera.NewDevice(src, cameraConstraints(cfg))

	// Flash light and booth
	debug.Step(3, "Initializing booth")
	flash := light.NewFlash(gpioDriver, cfg.GPIO.FlashPin)
	defer flash.Off()
	debug.PrintStruct("Timing", cfg.Timing)
	debug.PrintStruct("Strip", cfg.Strip)

	if port := webPort.port(); port > 0 {
		addr, err := webAddr(cfg.Defaults.WebAddr, port)
		if err != nil {
			log.Fatalf("web address: %v", err)
		}
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		opts := boothOptions(cfg)
		opts.Flash = flash
		opts.Notifier = broadcaster
		b := booth.New(ctx, dev, opts)
		defer b.Close()

		if cfg.GPIO.ButtonPin > 0 {
			debug.Step(4, "Watching trigger button")
			btn := button.New(gpioDriver, cfg.GPIO.ButtonPin, cfg.Debounce())
			go func() {
				if err := btn.Watch(ctx, func() { b.Press(ctx) }); err != nil && !errors.Is(err, context.Canceled) {
					debug.Error(fmt.Errorf("button: %w", err))
				}
			}()
		}

		srv := web.NewServer(addr, broadcaster, b)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		b.Wait()
		return
	}

	{
		// One guest, no page: capture once and write the strip.
		opts := boothOptions(cfg)
		opts.Flash = flash
		b := booth.New(ctx, dev, opts)
		defer b.Close()
		path, err := runHeadless(ctx, b, cfg.Defaults.OutDir)
		if err != nil {
			log.Fatalf("photobooth failed: %v", err)
		}
		fmt.Println(path)
	}
}

// runHeadless walks one guest through start, capture and save.
func runHeadless(ctx context.Context, b *booth.Booth, outDir string) (string, error) {
	debug.Section("Headless session")
	if err := b.Start(ctx); err != nil {
		return "", err
	}
	if !b.Capture() {
		return "", errors.New("capture did not start")
	}
	b.Wait()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !b.Snapshot().HasStrip {
		return "", errors.New("no strip was developed, see the log for the cause")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output folder: %w", err)
	}
	return b.Save(outDir)
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(countdownMs int) error {
	if countdownMs != 0 && (countdownMs < 1 || countdownMs > 10000) {
		return fmt.Errorf("countdown_ms must be between 1 and 10000, got %d", countdownMs)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero values are applied.
func applyOverrides(cfg *config.Config, countdownMs int, outDir string) {
	if countdownMs > 0 {
		cfg.Timing.CountdownStepMs = countdownMs
	}
	if outDir != "" {
		cfg.Defaults.OutDir = outDir
	}
}

// boothOptions maps the configuration onto the booth.
func boothOptions(cfg *config.Config) booth.Options {
	return booth.Options{
		Params: capture.Params{
			CountdownFrom: 3,
			CountdownStep: cfg.CountdownStep(),
			FlashDuration: cfg.FlashDuration(),
			ShotPause:     cfg.ShotPause(),
			Developing:    cfg.DevelopingDelay(),
			Frame: frame.Options{
				Width:   cfg.Photo.Width,
				Height:  cfg.Photo.Height,
				Quality: cfg.Photo.Quality,
			},
		},
		Layout: strip.Layout{
			PhotoWidth:   cfg.Photo.Width,
			PhotoHeight:  cfg.Photo.Height,
			Padding:      cfg.Strip.Padding,
			Spacing:      cfg.Strip.Spacing,
			FooterHeight: cfg.Strip.FooterHeight,
			Photos:       3,
		},
		Footer: strip.Footer{
			Title:       cfg.Strip.Title,
			Attribution: cfg.Strip.Attribution,
		},
	}
}

func cameraConstraints(cfg *config.Config) camera.Constraints {
	c := camera.DefaultConstraints()
	c.IdealWidth = cfg.Camera.IdealWidth
	c.IdealHeight = cfg.Camera.IdealHeight
	return c
}

// webAddr keeps the host of the configured address and swaps in port.
func webAddr(configured string, port int) (string, error) {
	host, _, err := net.SplitHostPort(configured)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", configured, err)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }

// newSourceFromConfig selects a frame source based on configuration.
func newSourceFromConfig(g gpio.Driver, cfg *config.Config) (camera.Source, error) {
	switch cfg.Camera.Type {
	case "pattern":
		return camera.Pattern{}, nil
	case "tethered":
		return camera.Tethered{
			GPIO:         g,
			WatchDir:     cfg.Camera.WatchDir,
			FocusPin:     cfg.Camera.FocusPin,
			ShutterPin:   cfg.Camera.ShutterPin,
			FocusDelay:   cfg.FocusDelay(),
			ShutterDelay: cfg.ShutterDelay(),
			FrameTimeout: cfg.FrameTimeout(),
		}, nil
	case "gocv":
		return camera.NewGoCV(cfg.Camera.Device)
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}
