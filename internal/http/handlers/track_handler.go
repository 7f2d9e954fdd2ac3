// Tracking redirect handler.
//
// This file exposes the visitor-facing endpoint:
//   - GET /track/:shortId  (record the scan, redirect to the destination)
//
// Unlike the JSON API, this endpoint serves humans following a printed or
// scanned link, so failures render small self-contained HTML pages instead of
// error envelopes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-qr-backend/internal/http/middleware"
	"github.com/tbourn/go-qr-backend/internal/services"
)

// TrackService defines the redirect resolution operation consumed by the
// tracking endpoint.
//
// Implementations should be safe for concurrent use. Scan recording is
// expected to survive caller cancellation (see services.TrackService).
type TrackService interface {
	// Resolve returns the destination URL for a short id, recording the scan.
	Resolve(ctx context.Context, shortID string, meta services.ScanMeta) (string, error)
}

// TrackHandlers serves the visitor-facing tracking endpoint.
type TrackHandlers struct {
	trackSvc TrackService
}

// NewTrack constructs TrackHandlers bound to the given service.
func NewTrack(trackSvc TrackService) *TrackHandlers {
	return &TrackHandlers{trackSvc: trackSvc}
}

// notFoundPage is rendered when a short id does not exist or was deactivated.
const notFoundPage = `<!DOCTYPE html>
<html>
<head>
  <title>QR Code Not Found</title>
  <style>
    body { font-family: Arial; text-align: center; padding: 50px; }
    h1 { color: #e74c3c; }
  </style>
</head>
<body>
  <h1>QR Code Not Found</h1>
  <p>This QR code does not exist or has been deleted.</p>
</body>
</html>`

// errorPage is rendered when the lookup itself failed.
const errorPage = `<!DOCTYPE html>
<html>
<head>
  <title>Error</title>
  <style>
    body { font-family: Arial; text-align: center; padding: 50px; }
    h1 { color: #e74c3c; }
  </style>
</head>
<body>
  <h1>Oops! Something went wrong</h1>
  <p>Please try again later.</p>
</body>
</html>`

// Track godoc
// @ID          trackScan
// @Summary     Resolve a short link
// @Description Records the scan and redirects the visitor to the destination URL. Unknown ids render a small HTML not-found page.
// @Tags        Tracking
// @Produce     html
//
// @Param       shortId  path  string  true  "Short id"  example(4f9d2a1c8e3b)
//
// @Success     302  {string} string "Redirect to destination"
// @Failure     404  {string} string "Not-found page"
// @Failure     500  {string} string "Error page"
// @Router      /track/{shortId} [get]
func (h *TrackHandlers) Track(c *gin.Context) {
	meta := services.ScanMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}

	dest, err := h.trackSvc.Resolve(c.Request.Context(), c.Param("shortId"), meta)
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundPage))
			return
		}
		middleware.LoggerFrom(c).Error().
			Err(err).
			Str("short_id", c.Param("shortId")).
			Msg("track resolution failed")
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorPage))
		return
	}

	c.Redirect(http.StatusFound, dest)
}
