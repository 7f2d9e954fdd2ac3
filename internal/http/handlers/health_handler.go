// Health and index handlers.
//
// This file exposes the operational endpoints:
//   - GET /api/health  (liveness probe with environment info)
//   - GET /            (API index for humans poking at the service)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the liveness probe payload.
type HealthResponse struct {
	Status      string `json:"status" example:"OK"`
	Timestamp   string `json:"timestamp" example:"2025-01-02T15:04:05Z"`
	Environment string `json:"environment" example:"development"`
}

// Health returns a handler reporting service liveness and the deployment
// environment.
//
// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Operations
// @Produce     json
// @Success     200  {object} handlers.HealthResponse
// @Router      /api/health [get]
func Health(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:      "OK",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Environment: environment,
		})
	}
}

// Index returns a handler serving a small JSON map of the public endpoints.
func Index(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "QR Code Tracker API",
			"version": version,
			"endpoints": gin.H{
				"health":     "/api/health",
				"generateQR": "POST /api/qr/generate",
				"listQR":     "GET /api/qr/list",
				"getQR":      "GET /api/qr/:id",
				"deleteQR":   "DELETE /api/qr/:id",
				"stats":      "GET /api/qr/stats/:id",
				"track":      "GET /track/:shortId",
			},
		})
	}
}
