// Package qrcodes implements the authenticated HTTP handlers for the QR code
// lifecycle.  Every route requires a valid bearer token; the owner identity is
// always taken from the authenticated context, never from the request payload.
//
// Route layout:
//
//	POST /qr/generate   — encode content and persist a new QR code
//	GET  /qr/history    — paginated history with optional date filtering
//	POST /qr/share/:id  — email the QR code to a recipient
//	POST /qr/scan/:id   — mark the QR code as scanned
package qrcodes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qr-dashboard/qr-dashboard/internal/middleware"
	"github.com/qr-dashboard/qr-dashboard/internal/services"
)

// Handler holds the dependencies for all QR code endpoints.
type Handler struct {
	service *services.QRCodeService
}

// NewHandler creates a new Handler.
func NewHandler(service *services.QRCodeService) *Handler {
	return &Handler{service: service}
}

// generateRequest is the body for POST /qr/generate.
type generateRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"required"`
}

// shareRequest is the body for POST /qr/share/:id.
type shareRequest struct {
	Email string `json:"email" binding:"required"`
}

// ---- POST /qr/generate -------------------------------------------------------------

// @Summary      Generate a QR code
// @Description  Encodes the given content as a QR code image and stores the record for the authenticated user.
// @Tags         QRCodes
// @Accept       json
// @Produce      json
// @Param        request  body  generateRequest  true  "Content and type (url or text)"
// @Success      200  {object}  map[string]interface{}  "qrCode: the created record"
// @Failure      400  {object}  map[string]interface{}  "Validation failure"
// @Failure      500  {object}  map[string]interface{}  "Encoding or storage failure"
// @Security     BearerAuth
// @Router       /qr/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Content and type are required",
			"error":   err.Error(),
		})
		return
	}

	code, err := h.service.Generate(c.Request.Context(), middleware.GetUserID(c), req.Content, req.Type)
	if err != nil {
		writeServiceError(c, err, "Error generating QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"qrCode": code})
}

// ---- GET /qr/history ---------------------------------------------------------------

// @Summary      QR code history
// @Description  Returns a page of the authenticated user's QR codes, newest first. startDate and endDate (RFC3339 or YYYY-MM-DD) bound the creation date inclusively.
// @Tags         QRCodes
// @Produce      json
// @Param        page       query  int     false  "Page number (1-indexed)"
// @Param        limit      query  int     false  "Page size (default 10, max 100)"
// @Param        startDate  query  string  false  "Earliest creation date, inclusive"
// @Param        endDate    query  string  false  "Latest creation date, inclusive"
// @Success      200  {object}  map[string]interface{}  "qrCodes, totalPages, currentPage"
// @Failure      400  {object}  map[string]interface{}  "Malformed paging or date filter"
// @Failure      500  {object}  map[string]interface{}  "Storage failure"
// @Security     BearerAuth
// @Router       /qr/history [get]
func (h *Handler) History(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid page",
			"error":   "page must be an integer",
		})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid limit",
			"error":   "limit must be an integer",
		})
		return
	}

	opts := services.HistoryOptions{Page: page, Limit: limit}

	if raw := c.Query("startDate"); raw != "" {
		from, _, err := parseDateBound(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid startDate",
				"error":   err.Error(),
			})
			return
		}
		opts.From = &from
	}

	if raw := c.Query("endDate"); raw != "" {
		to, dateOnly, err := parseDateBound(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid endDate",
				"error":   err.Error(),
			})
			return
		}
		// A date-only upper bound means "through the end of that day".
		if dateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		opts.To = &to
	}

	result, err := h.service.ListHistory(c.Request.Context(), middleware.GetUserID(c), opts)
	if err != nil {
		writeServiceError(c, err, "Error fetching QR code history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qrCodes":     result.Codes,
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
	})
}

// ---- POST /qr/share/:id ------------------------------------------------------------

// @Summary      Share a QR code by email
// @Description  Emails the QR code image to the given address. Nothing is persisted; the record is unchanged.
// @Tags         QRCodes
// @Accept       json
// @Produce      json
// @Param        id       path  string        true  "QR code ID"
// @Param        request  body  shareRequest  true  "Recipient email address"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid email"
// @Failure      404  {object}  map[string]interface{}  "QR code not found"
// @Failure      500  {object}  map[string]interface{}  "Delivery failure"
// @Security     BearerAuth
// @Router       /qr/share/{id} [post]
func (h *Handler) Share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Recipient email is required",
			"error":   err.Error(),
		})
		return
	}

	err := h.service.Share(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Email)
	if err != nil {
		writeServiceError(c, err, "Error sharing QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code shared successfully"})
}

// ---- POST /qr/scan/:id -------------------------------------------------------------

// @Summary      Mark a QR code as scanned
// @Description  Records a scan of the QR code. Repeat scans succeed and refresh the scan timestamp.
// @Tags         QRCodes
// @Produce      json
// @Param        id  path  string  true  "QR code ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "QR code not found"
// @Failure      500  {object}  map[string]interface{}  "Storage failure"
// @Security     BearerAuth
// @Router       /qr/scan/{id} [post]
func (h *Handler) Scan(c *gin.Context) {
	_, err := h.service.MarkScanned(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Error updating QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code marked as scanned"})
}

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Validation problems are the caller's fault (400), missing records are 404,
// everything else (encoding, storage, mail delivery) is a 500.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"message": "QR code not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": fallback,
		})
	}
}

// parseDateBound accepts RFC3339 timestamps and bare YYYY-MM-DD dates.
// The second return value reports whether the value was date-only.
func parseDateBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
