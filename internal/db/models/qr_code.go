// Package models - qr_code.go defines the QRCode model representing a generated
// QR code owned by a user, including its encoded image and scan state.
package models

import "time"

// QR code content kinds accepted by the generate endpoint.
const (
	QRCodeKindURL  = "url"
	QRCodeKindText = "text"
)

// QRCode represents a single generated QR code record
type QRCode struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"-" db:"user_id"` // Owner; never serialized, never taken from client input
	Content string `json:"content" db:"content"`
	Kind    string `json:"type" db:"kind"` // "url" or "text"
	// ImageURL is the encoded image as a data URL (data:image/png;base64,...).
	// Derived from Content at creation and never supplied by the caller.
	ImageURL  string     `json:"imageUrl" db:"image_url"`
	Scanned   bool       `json:"scanned" db:"scanned"`
	ScanDate  *time.Time `json:"scanDate,omitempty" db:"scan_date"` // Present iff Scanned
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// ValidQRCodeKind reports whether kind is one of the accepted content kinds.
func ValidQRCodeKind(kind string) bool {
	return kind == QRCodeKindURL || kind == QRCodeKindText
}
