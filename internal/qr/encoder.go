// Package qr renders QR code images. The encoder produces self-contained
// data URLs so the API can return images inline without a storage backend.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// imageSize is the rendered PNG edge length in pixels.
	imageSize = 256

	// MaxContentLength bounds encodable content. QR version 40 with medium
	// error correction holds at most 2331 bytes; we cap below that so all
	// accepted content is guaranteed to fit.
	MaxContentLength = 2048
)

// Encoder renders content into a QR code image.
type Encoder interface {
	Encode(content string) (string, error)
}

// PNGEncoder renders QR codes as base64 PNG data URLs.
type PNGEncoder struct{}

// NewPNGEncoder creates a new PNGEncoder
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

// Encode renders the content as a 256x256 PNG with medium error correction
// and returns it as a data:image/png;base64 URL.
func (e *PNGEncoder) Encode(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("content is empty")
	}
	if len(content) > MaxContentLength {
		return "", fmt.Errorf("content exceeds %d bytes", MaxContentLength)
	}

	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
