// Package services implements higher-level business logic that coordinates across repositories and external systems.
// The QR code service, for example, orchestrates validating content, rendering the QR image, persisting the record, and — for shares — composing and delivering the email, a multi-step operation that spans several domain boundaries.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/qr-dashboard/qr-dashboard/internal/db/models"
	"github.com/qr-dashboard/qr-dashboard/internal/notify"
	"github.com/qr-dashboard/qr-dashboard/internal/qr"
	"github.com/qr-dashboard/qr-dashboard/internal/telemetry"
)

const maxHistoryLimit = 100

// QRCodeStore is the persistence surface the service needs. Implemented by
// repositories.QRCodeRepository.
type QRCodeStore interface {
	Create(ctx context.Context, code *models.QRCode) error
	FindOwned(ctx context.Context, id, userID string) (*models.QRCode, error)
	QueryHistory(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*models.QRCode, int, error)
	MarkScanned(ctx context.Context, id, userID string) (*models.QRCode, error)
}

// QRCodeService implements the QR code lifecycle: generation, history
// queries, sharing by email, and scan tracking.
type QRCodeService struct {
	store   QRCodeStore
	encoder qr.Encoder
	mailer  notify.Mailer
}

// NewQRCodeService creates a new QRCodeService
func NewQRCodeService(store QRCodeStore, encoder qr.Encoder, mailer notify.Mailer) *QRCodeService {
	return &QRCodeService{
		store:   store,
		encoder: encoder,
		mailer:  mailer,
	}
}

// Generate validates the content, renders the QR image, and persists the
// record for the given user.
func (s *QRCodeService) Generate(ctx context.Context, userID, content, kind string) (*models.QRCode, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if !models.ValidQRCodeKind(kind) {
		return nil, fmt.Errorf("%w: type must be %q or %q", ErrValidation, models.QRCodeKindURL, models.QRCodeKindText)
	}
	if len(content) > qr.MaxContentLength {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, qr.MaxContentLength)
	}

	imageURL, err := s.encoder.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	code := &models.QRCode{
		UserID:   userID,
		Content:  content,
		Kind:     kind,
		ImageURL: imageURL,
	}

	if err := s.store.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	telemetry.QRGeneratedTotal.WithLabelValues(kind).Inc()

	return code, nil
}

// HistoryOptions selects a page of a user's QR code history.
// Page is 1-indexed; From/To optionally bound the creation date.
type HistoryOptions struct {
	Page  int
	Limit int
	From  *time.Time
	To    *time.Time
}

// HistoryPage is one page of QR code history with pagination metadata.
type HistoryPage struct {
	Codes       []*models.QRCode
	Total       int
	TotalPages  int
	CurrentPage int
}

// ListHistory returns a page of the user's QR codes, newest first.
// Page and limit must both be positive; limits above maxHistoryLimit are
// capped rather than rejected.
func (s *QRCodeService) ListHistory(ctx context.Context, userID string, opts HistoryOptions) (*HistoryPage, error) {
	if opts.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}
	if opts.Limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1", ErrValidation)
	}
	page := opts.Page
	limit := opts.Limit
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	offset := (page - 1) * limit

	codes, total, err := s.store.QueryHistory(ctx, userID, opts.From, opts.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	totalPages := (total + limit - 1) / limit

	return &HistoryPage{
		Codes:       codes,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

// Share emails the QR code to the given address. Nothing about the share is
// persisted; delivery failure is reported but leaves no state behind.
func (s *QRCodeService) Share(ctx context.Context, userID, codeID, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	code, err := s.store.FindOwned(ctx, codeID, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if code == nil {
		return ErrNotFound
	}

	if err := s.mailer.SendQRCodeShare(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	telemetry.QRShareEmailsSentTotal.Inc()

	return nil
}

// MarkScanned records a scan of the user's QR code. Scanning is idempotent:
// repeat scans succeed and refresh the scan timestamp.
func (s *QRCodeService) MarkScanned(ctx context.Context, userID, codeID string) (*models.QRCode, error) {
	code, err := s.store.MarkScanned(ctx, codeID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if code == nil {
		return nil, ErrNotFound
	}

	telemetry.QRScansTotal.Inc()

	return code, nil
}
