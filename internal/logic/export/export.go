// Package export turns a composed strip into a download.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/text/language"

	"github.com/cjeanneret/BoothGo/internal/debug"
	"github.com/cjeanneret/BoothGo/internal/i18n"
)

// FilePrefix starts every exported file name.
const FilePrefix = "christmas-photobooth-"

// Filename returns the download name for a strip exported at t.
func Filename(t time.Time) string {
	return FilePrefix + strconv.FormatInt(t.UnixMilli(), 10) + ".png"
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := imgio.PNGEncoder()(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Platform carries the browser signals used to pick a save path.
type Platform struct {
	UserAgent      string
	Platform       string // navigator.platform
	MaxTouchPoints int    // navigator.maxTouchPoints
}

// PlatformFromRequest reads the User-Agent header and the optional
// platform/touch hints the kiosk page sends as query parameters.
func PlatformFromRequest(r *http.Request) Platform {
	p := Platform{
		UserAgent: r.UserAgent(),
		Platform:  r.URL.Query().Get("platform"),
	}
	if v := r.URL.Query().Get("touch"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxTouchPoints = n
		}
	}
	return p
}

// IOS reports an iPhone, iPod or iPad, including iPads that announce
// themselves as desktop Macs.
func (p Platform) IOS() bool {
	ua := p.UserAgent
	if strings.Contains(ua, "iPad") || strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPod") {
		return true
	}
	return p.Platform == "MacIntel" && p.MaxTouchPoints > 1
}

// Safari reports Safari proper. Chrome, Firefox and Edge on iOS also
// carry "Safari" in their user agent.
func (p Platform) Safari() bool {
	ua := strings.ToLower(p.UserAgent)
	if !strings.Contains(ua, "safari") {
		return false
	}
	for _, other := range []string{"chrome", "android", "crios", "fxios", "edgios"} {
		if strings.Contains(ua, other) {
			return false
		}
	}
	return true
}

// NeedsManualSave is true for mobile Safari, which ignores download
// attributes on generated files.
func (p Platform) NeedsManualSave() bool {
	return p.IOS() && p.Safari()
}

// Result describes how a strip was handed over.
type Result struct {
	Filename   string
	ManualSave bool // the guest must long-press the image to keep it
}

var saveTmpl = template.Must(template.New("save").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;padding:20px;display:flex;flex-direction:column;align-items:center;background:#1a1a1a;min-height:100vh}
img{max-width:100%;height:auto}
p{color:#fff;font-family:-apple-system,sans-serif;font-size:18px;text-align:center;margin-bottom:20px}
</style>
</head>
<body>
<p>{{.Instruction}}</p>
<img src="{{.Src}}" alt="{{.Title}}">
</body>
</html>
`))

// Exporter writes strips to HTTP responses.
type Exporter struct {
	Lang language.Tag
}

// Export sends img either as a file attachment or, on mobile Safari, as a
// page showing the image with a save instruction.
func (e Exporter) Export(w http.ResponseWriter, img image.Image, p Platform, now time.Time) (Result, error) {
	res := Result{Filename: Filename(now), ManualSave: p.NeedsManualSave()}

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return Result{}, err
	}

	if !res.ManualSave {
		debug.Info("Export: download %s (%d bytes)", res.Filename, buf.Len())
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := w.Write(buf.Bytes()); err != nil {
			return res, fmt.Errorf("write %s: %w", res.Filename, err)
		}
		return res, nil
	}

	debug.Info("Export: manual save page for %s", res.Filename)
	lang := e.Lang
	if lang == language.Und {
		lang = i18n.Default()
	}
	data := struct {
		Lang        string
		Title       string
		Instruction string
		Src         template.URL
	}{
		Lang:        lang.String(),
		Title:       i18n.T(lang, i18n.MsgSaveTitle),
		Instruction: i18n.T(lang, i18n.MsgSaveInstruction),
		Src:         template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := saveTmpl.Execute(w, data); err != nil {
		return res, fmt.Errorf("render save page: %w", err)
	}
	return res, nil
}

// SaveFile writes img into dir under its export name and returns the path.
func SaveFile(dir string, img image.Image, now time.Time) (string, error) {
	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	debug.Info("Export: saved %s", path)
	return path, nil
}
