// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/config"
	"github.com/tbourn/go-qr-backend/internal/domain"
	"github.com/tbourn/go-qr-backend/internal/http/handlers"
	"github.com/tbourn/go-qr-backend/internal/http/middleware"
	"github.com/tbourn/go-qr-backend/internal/qrimage"
	"github.com/tbourn/go-qr-backend/internal/repo"
	"github.com/tbourn/go-qr-backend/internal/services"
)

// qrRepoShim adapts the repository free functions to the services.QRCodeRepo
// interface expected by the QRCodeService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type qrRepoShim struct{}

// CreateQRCode proxies repo.CreateQRCode.
func (qrRepoShim) CreateQRCode(ctx context.Context, db *gorm.DB, code *domain.QRCode) (*domain.QRCode, error) {
	return repo.CreateQRCode(ctx, db, code)
}

// GetActiveQRCode proxies repo.GetActiveQRCode.
func (qrRepoShim) GetActiveQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error) {
	return repo.GetActiveQRCode(ctx, db, shortID)
}

// GetQRCode proxies repo.GetQRCode.
func (qrRepoShim) GetQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error) {
	return repo.GetQRCode(ctx, db, shortID)
}

// CountQRCodes proxies repo.CountQRCodes (pagination support).
func (qrRepoShim) CountQRCodes(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountQRCodes(ctx, db)
}

// ListQRCodesPage proxies repo.ListQRCodesPage (pagination support).
func (qrRepoShim) ListQRCodesPage(ctx context.Context, db *gorm.DB, sortBy string, descending bool, offset, limit int) ([]domain.QRCode, error) {
	return repo.ListQRCodesPage(ctx, db, sortBy, descending, offset, limit)
}

// DeactivateQRCode proxies repo.DeactivateQRCode.
func (qrRepoShim) DeactivateQRCode(ctx context.Context, db *gorm.DB, shortID string) error {
	return repo.DeactivateQRCode(ctx, db, shortID)
}

// ListScans proxies repo.ListScans (analytics support).
func (qrRepoShim) ListScans(ctx context.Context, db *gorm.DB, shortID string) ([]domain.Scan, error) {
	return repo.ListScans(ctx, db, shortID)
}

// RecordScan proxies repo.RecordScan (tracking support).
func (qrRepoShim) RecordScan(ctx context.Context, db *gorm.DB, shortID string, scan *domain.Scan) (*domain.QRCode, error) {
	return repo.RecordScan(ctx, db, shortID, scan)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, operational endpoints, and then mounts
// the public API under /api plus the visitor-facing /track route.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression (QR data URLs compress well)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; the API accepts only small JSON bodies)
	r.Use(limitBody(64 << 10))

	// 6) Compress responses; the embedded QR data URLs shrink considerably
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, creator, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, creator, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← repo/db
	qrSvc := services.NewQRCodeService(db, qrRepoShim{}, cfg.BaseURL)
	qrSvc.ImageOpts = qrimage.Options{
		Size:  cfg.QRSize,
		Dark:  qrimage.DefaultOptions().Dark,
		Light: qrimage.DefaultOptions().Light,
	}
	statsSvc := &services.StatsService{DB: db, Repo: qrRepoShim{}}
	trackSvc := &services.TrackService{DB: db, Repo: qrRepoShim{}}

	h := handlers.New(qrSvc, statsSvc, cfg.IdempotencyTTL)
	th := handlers.NewTrack(trackSvc)

	// Operational endpoints
	r.GET("/", handlers.Index(cfg.Version))
	r.GET("/api/health", handlers.Health(cfg.Environment))

	// Public API
	api := r.Group("/api/qr")
	{
		api.POST("/generate", h.Generate)
		api.GET("/list", h.List)
		api.GET("/stats/:id", h.Stats)
		api.GET("/:id", h.Get)
		api.DELETE("/:id", h.Deactivate)
	}

	// Visitor-facing tracking redirect
	r.GET("/track/:shortId", th.Track)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
