// qrcode_repository.go implements QRCodeRepository, providing database queries for QR code
// records: creation, owner-scoped lookup, paginated history with date filtering, and scan tracking.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qr-dashboard/qr-dashboard/internal/db/models"
)

// QRCodeRepository handles database operations for QR codes
type QRCodeRepository struct {
	db *sqlx.DB
}

// NewQRCodeRepository creates a new QR code repository
func NewQRCodeRepository(db *sqlx.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

// Create inserts a new QR code record
func (r *QRCodeRepository) Create(ctx context.Context, code *models.QRCode) error {
	code.ID = uuid.New().String()
	code.CreatedAt = time.Now()

	query := `
		INSERT INTO qr_codes (id, user_id, content, kind, image_url, scanned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.UserID,
		code.Content,
		code.Kind,
		code.ImageURL,
		code.Scanned,
		code.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create qr code: %w", err)
	}

	return nil
}

// FindOwned retrieves a QR code by ID, scoped to its owner.
// A code that exists but belongs to another user is reported the same way as a
// missing one (nil, nil), so callers cannot probe for other users' codes.
func (r *QRCodeRepository) FindOwned(ctx context.Context, id, userID string) (*models.QRCode, error) {
	query := `
		SELECT id, user_id, content, kind, image_url, scanned, scan_date, created_at
		FROM qr_codes
		WHERE id = $1 AND user_id = $2
	`

	var code models.QRCode
	err := r.db.GetContext(ctx, &code, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}

	return &code, nil
}

// QueryHistory retrieves a user's QR codes ordered by creation time descending,
// optionally bounded by creation date, along with the total count matching the filter.
func (r *QRCodeRepository) QueryHistory(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*models.QRCode, int, error) {
	whereClause := "WHERE user_id = $1"
	args := []interface{}{userID}
	argCount := 1

	if from != nil {
		argCount++
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *from)
	}

	if to != nil {
		argCount++
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *to)
	}

	// Count total results for pagination
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM qr_codes %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count qr codes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, content, kind, image_url, scanned, scan_date, created_at
		FROM qr_codes
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argCount+1, argCount+2)

	args = append(args, limit, offset)

	codes := make([]*models.QRCode, 0)
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list qr codes: %w", err)
	}

	return codes, total, nil
}

// MarkScanned records a scan of the given QR code, refreshing the scan timestamp
// on repeat scans. Returns the updated record, or (nil, nil) when the code does
// not exist or is not owned by the user.
func (r *QRCodeRepository) MarkScanned(ctx context.Context, id, userID string) (*models.QRCode, error) {
	query := `
		UPDATE qr_codes
		SET scanned = true, scan_date = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, content, kind, image_url, scanned, scan_date, created_at
	`

	var code models.QRCode
	err := r.db.GetContext(ctx, &code, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark qr code scanned: %w", err)
	}

	return &code, nil
}
