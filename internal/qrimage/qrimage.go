// Package qrimage renders QR code images for tracking URLs. The renderer is
// an opaque collaborator of the creation flow: it takes a URL and options and
// returns an encoded image, with no knowledge of storage or transport.
//
// The default implementation encodes a PNG with skip2/go-qrcode and wraps it
// in a base64 data URL so it can be embedded directly in JSON responses and
// <img> tags, matching what API clients expect.
package qrimage

import (
	"encoding/base64"
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// Options controls the rendered image. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	// Size is the output width/height in pixels.
	Size int
	// Dark and Light are the module and background colors.
	Dark  color.Color
	Light color.Color
}

// DefaultOptions mirrors the rendering parameters used for all issued codes:
// 400px, black on white.
func DefaultOptions() Options {
	return Options{
		Size:  400,
		Dark:  color.Black,
		Light: color.White,
	}
}

// Renderer produces an encoded QR image for a URL. Implementations must be
// safe for concurrent use.
type Renderer interface {
	// Render returns the image for url as a base64 PNG data URL.
	Render(url string, opts Options) (string, error)
}

// PNGRenderer renders PNG data URLs with skip2/go-qrcode. The zero value is
// ready to use.
type PNGRenderer struct{}

// Render encodes url into a QR code PNG and returns it as a
// "data:image/png;base64,..." string. Rendering failures (e.g., content too
// long for the symbol capacity) are returned to the caller and fail creation.
func (PNGRenderer) Render(url string, opts Options) (string, error) {
	if opts.Size <= 0 {
		opts = DefaultOptions()
	}

	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	if opts.Dark != nil {
		q.ForegroundColor = opts.Dark
	}
	if opts.Light != nil {
		q.BackgroundColor = opts.Light
	}

	png, err := q.PNG(opts.Size)
	if err != nil {
		return "", fmt.Errorf("render qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
