// QR code HTTP handlers.
//
// This file exposes REST endpoints for QR code resources:
//   - POST   /api/qr/generate     (issue a new code)
//   - GET    /api/qr/list         (list, paginated, ETag support)
//   - GET    /api/qr/:id          (full record)
//   - DELETE /api/qr/:id          (deactivate)
//   - GET    /api/qr/stats/:id    (scan statistics)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
	"github.com/tbourn/go-qr-backend/internal/http/middleware"
	"github.com/tbourn/go-qr-backend/internal/repo"
	"github.com/tbourn/go-qr-backend/internal/services"
	"github.com/tbourn/go-qr-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// QRCodeService defines code lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QRCodeService interface {
	// Create issues a new code for originalURL attributed to createdBy.
	Create(ctx context.Context, originalURL, createdBy string) (*domain.QRCode, error)
	// Get returns the full active record for a short id.
	Get(ctx context.Context, shortID string) (*domain.QRCode, error)
	// List returns a page of active code summaries and the total count.
	List(ctx context.Context, page, pageSize int, sortBy, order string) ([]domain.QRCode, int64, error)
	// Deactivate soft-deletes a code by short id.
	Deactivate(ctx context.Context, shortID string) error
}

// StatsService defines the scan-statistics read path.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type StatsService interface {
	// Get summarizes the scan history of an active code.
	Get(ctx context.Context, shortID string) (*services.Stats, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for QR codes and their statistics.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	qrSvc    QRCodeService
	statsSvc StatsService

	// IdempotencyTTL bounds how long an Idempotency-Key on the generate
	// endpoint stays replayable.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(qrSvc QRCodeService, statsSvc StatsService, idempotencyTTL time.Duration) *Handlers {
	return &Handlers{qrSvc: qrSvc, statsSvc: statsSvc, IdempotencyTTL: idempotencyTTL}
}

//
// DTOs
//

// GenerateRequest is the JSON payload for issuing a QR code.
type GenerateRequest struct {
	// OriginalURL is the absolute destination the code redirects to.
	OriginalURL string `json:"originalUrl" binding:"required" example:"https://example.com/landing"`
	// CreatedBy optionally attributes the code; defaults to "anonymous".
	CreatedBy string `json:"createdBy" example:"marketing-team"`
}

//
// Helpers
//

// clampListParams parses and bounds the list query params to sane defaults
// and limits, returning (page, limit, sortBy, order). Parameter names follow
// the public API: limit, page, sortBy, order.
func clampListParams(c *gin.Context) (page, limit int, sortBy, order string) {
	const (
		defaultPage  = 1
		defaultLimit = 50
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	limit = utils.ClampInt(utils.AtoiDefault(c.Query("limit"), defaultLimit), 1, maxLimit)
	sortBy = c.DefaultQuery("sortBy", "createdAt")
	order = c.DefaultQuery("order", "desc")
	return
}

// serviceDB exposes the GORM handle when the service is the concrete
// implementation; used for best-effort extras (ETag, idempotency records).
func (h *Handlers) serviceDB() *gorm.DB {
	if svc, ok := h.qrSvc.(*services.QRCodeService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// Generate godoc
// @ID          generateQRCode
// @Summary     Issue a new QR code
// @Description Validates the destination URL, mints a short id, renders the QR image, and persists the record.
// @Tags        QRCodes
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Replay-safe retry key"
// @Param       body  body  handlers.GenerateRequest  true  "Generate payload"
//
// @Success     201  {object}  handlers.DataResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid or missing URL"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/qr/generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "originalUrl is required")
		return
	}

	ctx := c.Request.Context()
	// Idempotency records are scoped to the client IP, matching the
	// middleware's replay lookup (the API is unauthenticated).
	creator := c.ClientIP()

	// Serve a replay when the Idempotency-Key already produced a code.
	if key, has := middleware.GetIdempotencyKey(c); has {
		if db := h.serviceDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, creator, key, time.Now().UTC()); err == nil {
				if code, err := h.qrSvc.Get(ctx, rec.ShortID); err == nil {
					ok(c, http.StatusOK, code)
					return
				}
			}
		}
	}

	code, err := h.qrSvc.Create(ctx, req.OriginalURL, req.CreatedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidURL):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid URL format")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not generate QR code")
		}
		return
	}

	// Best effort: persist the idempotency record for future replays.
	if key, has := middleware.GetIdempotencyKey(c); has {
		if db := h.serviceDB(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, creator, key, code.ShortID, http.StatusCreated, h.IdempotencyTTL)
		}
	}

	ok(c, http.StatusCreated, code)
}

// List godoc
// @ID          listQRCodes
// @Summary     List QR codes (paginated)
// @Description Returns a page of active codes without the rendered image or scan history. Supports weak ETag via If-None-Match and may return 304.
// @Tags        QRCodes
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page    query  int     false "Page number"      minimum(1) default(1)
// @Param       limit   query  int     false "Items per page"   minimum(1) maximum(100) default(50)
// @Param       sortBy  query  string  false "Sort field"       Enums(createdAt, updatedAt, scans)
// @Param       order   query  string  false "Sort direction"   Enums(asc, desc)
//
// @Success     200  {object} handlers.ListResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/qr/list [get]
func (h *Handlers) List(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit, sortBy, order := clampListParams(c)

	// ETag pre-check (best effort).
	if db := h.serviceDB(); db != nil {
		count, maxTS, err := repo.QRCodesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"qrcodes:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.qrSvc.List(ctx, page, limit, sortBy, order)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not fetch QR codes")
		return
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    items,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Pages: pages,
		},
	})
}

// Get godoc
// @ID          getQRCode
// @Summary     Get a QR code
// @Description Returns the full record, including the rendered image, for an active code.
// @Tags        QRCodes
// @Produce     json
//
// @Param       id  path  string  true  "Short id"  example(4f9d2a1c8e3b)
//
// @Success     200  {object} handlers.DataResponse
// @Failure     404  {object} handlers.ErrorResponse "QR code not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/qr/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	code, err := h.qrSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "QR code not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch QR code")
		return
	}
	ok(c, http.StatusOK, code)
}

// Deactivate godoc
// @ID          deactivateQRCode
// @Summary     Deactivate a QR code
// @Description Soft-deletes a code. The record is retained but stops resolving; the operation is idempotent.
// @Tags        QRCodes
// @Produce     json
//
// @Param       id  path  string  true  "Short id"  example(4f9d2a1c8e3b)
//
// @Success     200  {object} handlers.MessageResponse
// @Failure     404  {object} handlers.ErrorResponse "QR code not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/qr/{id} [delete]
func (h *Handlers) Deactivate(c *gin.Context) {
	err := h.qrSvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "QR code not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete QR code")
		return
	}
	okMessage(c, http.StatusOK, "QR code deleted successfully")
}

// Stats godoc
// @ID          qrCodeStats
// @Summary     Scan statistics for a QR code
// @Description Returns total scans, the ten most recent scans (newest first), and per-day counts in UTC.
// @Tags        QRCodes
// @Produce     json
//
// @Param       id  path  string  true  "Short id"  example(4f9d2a1c8e3b)
//
// @Success     200  {object} handlers.DataResponse
// @Failure     404  {object} handlers.ErrorResponse "QR code not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/qr/stats/{id} [get]
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.statsSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "QR code not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, "could not fetch statistics")
		return
	}
	ok(c, http.StatusOK, stats)
}
