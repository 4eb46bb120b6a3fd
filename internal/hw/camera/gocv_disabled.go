//go:build !gocv

package camera

import "errors"

// GoCVSupported reports whether this binary was built with the gocv tag.
const GoCVSupported = false

// NewGoCV reports that webcam support was not compiled in.
// Build with -tags gocv (OpenCV 4 required) to enable it.
func NewGoCV(deviceID int) (Source, error) {
	return nil, errors.New("gocv camera: binary built without -tags gocv")
}
