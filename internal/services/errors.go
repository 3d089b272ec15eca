package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes with errors.Is, so wrapped errors (fmt.Errorf with %w) still
// match.
var (
	// ErrValidation indicates the caller supplied bad input (missing content,
	// unknown kind, malformed email).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the QR code does not exist or is not owned by the
	// requesting user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("qr code not found")

	// ErrEncoding indicates the QR image could not be rendered.
	ErrEncoding = errors.New("qr encoding failed")

	// ErrStorage indicates a database failure.
	ErrStorage = errors.New("storage failed")

	// ErrNotification indicates the share email could not be delivered.
	ErrNotification = errors.New("notification failed")
)
