package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/cjeanneret/BoothGo/internal/booth"
	"github.com/cjeanneret/BoothGo/internal/config"
	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/hw/gpio"
	"github.com/cjeanneret/BoothGo/internal/logic/strip"
)

// ---------- validateCLIOverrides ----------

func TestValidateCLIOverrides(t *testing.T) {
	cases := []struct {
		name    string
		ms      int
		wantErr bool
	}{
		{"zero_means_config", 0, false},
		{"min", 1, false},
		{"testing_speed", 200, false},
		{"max", 10000, false},
		{"negative", -1, true},
		{"too_long", 10001, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCLIOverrides(tc.ms)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateCLIOverrides(%d) = %v, wantErr %v", tc.ms, err, tc.wantErr)
			}
		})
	}
}

// ---------- applyOverrides ----------

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, 0, "")
	if cfg.CountdownStep() != time.Second || cfg.Defaults.OutDir != "." {
		t.Errorf("zero overrides changed config: %+v", cfg.Timing)
	}

	applyOverrides(cfg, 250, "/tmp/strips")
	if cfg.CountdownStep() != 250*time.Millisecond {
		t.Errorf("CountdownStep() = %v, want 250ms", cfg.CountdownStep())
	}
	if cfg.Defaults.OutDir != "/tmp/strips" {
		t.Errorf("OutDir = %q", cfg.Defaults.OutDir)
	}
}

// ---------- webPortFlag ----------

func TestWebPortFlag_EmptyString(t *testing.T) {
	w := &webPortFlag{defaultPort: 8080}
	if err := w.Set(""); err != nil {
		t.Fatalf("Set(\"\") error: %v", err)
	}
	if w.port() != 8080 {
		t.Errorf("expected default port 8080, got %d", w.port())
	}
}

func TestWebPortFlag_Values(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"8080", 8080, false},
		{"1", 1, false},
		{"65535", 65535, false},
		{"0", 0, true},
		{"65536", 0, true},
		{"http", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			err := w.Set(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if !tc.wantErr && w.port() != tc.want {
				t.Errorf("port() = %d, want %d", w.port(), tc.want)
			}
		})
	}
}

func TestWebPortFlag_String(t *testing.T) {
	w := &webPortFlag{}
	if w.String() != "0" {
		t.Errorf("unset String() = %q", w.String())
	}
	_ = w.Set("8980")
	if w.String() != "8980" {
		t.Errorf("String() = %q", w.String())
	}
}

// ---------- webAddr ----------

func TestWebAddr(t *testing.T) {
	cases := []struct {
		configured string
		port       int
		want       string
	}{
		{"127.0.0.1:8080", 8980, "127.0.0.1:8980"},
		{":8080", 9000, ":9000"},
		{"[::1]:8080", 8081, "[::1]:8081"},
	}
	for _, tc := range cases {
		got, err := webAddr(tc.configured, tc.port)
		if err != nil {
			t.Fatalf("webAddr(%q): %v", tc.configured, err)
		}
		if got != tc.want {
			t.Errorf("webAddr(%q, %d) = %q, want %q", tc.configured, tc.port, got, tc.want)
		}
	}
	if _, err := webAddr("no-port", 8080); err == nil {
		t.Error("expected error for address without port")
	}
}

// ---------- newSourceFromConfig ----------

func TestNewSourceFromConfig(t *testing.T) {
	g := &gpio.MockDriver{}

	cfg := config.Default()
	src, err := newSourceFromConfig(g, cfg)
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	if _, ok := src.(camera.Pattern); !ok {
		t.Errorf("pattern: got %T", src)
	}

	cfg.Camera.Type = "tethered"
	cfg.Camera.WatchDir = t.TempDir()
	cfg.Camera.ShutterPin = 25
	src, err = newSourceFromConfig(g, cfg)
	if err != nil {
		t.Fatalf("tethered: %v", err)
	}
	tc, ok := src.(camera.Tethered)
	if !ok {
		t.Fatalf("tethered: got %T", src)
	}
	if tc.ShutterPin != 25 || tc.FrameTimeout != cfg.FrameTimeout() {
		t.Errorf("tethered source = %+v", tc)
	}

	cfg.Camera.Type = "gocv"
	if _, err := newSourceFromConfig(g, cfg); (err == nil) != camera.GoCVSupported {
		t.Errorf("gocv: err = %v with GoCVSupported = %v", err, camera.GoCVSupported)
	}

	cfg.Camera.Type = "polaroid"
	if _, err := newSourceFromConfig(g, cfg); err == nil {
		t.Error("expected error for unknown camera type")
	}
}

// ---------- boothOptions ----------

func TestBoothOptions_DefaultsMatchStrip(t *testing.T) {
	opts := boothOptions(config.Default())
	if opts.Layout != strip.DefaultLayout() {
		t.Errorf("layout = %+v, want %+v", opts.Layout, strip.DefaultLayout())
	}
	if opts.Footer != strip.DefaultFooter() {
		t.Errorf("footer = %+v", opts.Footer)
	}
	if opts.Params.CountdownStep != time.Second || opts.Params.Frame.Quality != 90 {
		t.Errorf("params = %+v", opts.Params)
	}
}

func TestCameraConstraints(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.IdealWidth, cfg.Camera.IdealHeight = 1920, 1080
	c := cameraConstraints(cfg)
	if c.IdealWidth != 1920 || c.IdealHeight != 1080 || c.Facing != camera.FacingUser || c.Audio {
		t.Errorf("constraints = %+v", c)
	}
}

// ---------- runHeadless ----------

func TestRunHeadless(t *testing.T) {
	cfg := config.Default()
	cfg.Timing = config.TimingConfig{CountdownStepMs: 1, FlashMs: 1, ShotPauseMs: 1, DevelopingMs: 1}
	out := filepath.Join(t.TempDir(), "strips")

	dev := camera.NewDevice(camera.Pattern{Width: 320, Height: 180}, cameraConstraints(cfg))
	b := booth.New(context.Background(), dev, boothOptions(cfg))
	defer b.Close()

	path, err := runHeadless(context.Background(), b, out)
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if !regexp.MustCompile(`christmas-photobooth-\d+\.png$`).MatchString(path) {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("strip not written: %v", err)
	}
}

func TestRunHeadless_NoCamera(t *testing.T) {
	cfg := config.Default()
	dev := camera.NewDevice(camera.Tethered{GPIO: &gpio.MockDriver{}, WatchDir: "/does/not/exist", ShutterPin: 25}, cameraConstraints(cfg))
	b := booth.New(context.Background(), dev, boothOptions(cfg))

	if _, err := runHeadless(context.Background(), b, t.TempDir()); err == nil {
		t.Error("expected error when the camera cannot be opened")
	}
}
