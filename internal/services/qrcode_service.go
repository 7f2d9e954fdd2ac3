// Package services – QRCodeService
//
// This file implements the QRCodeService, which manages the lifecycle of
// trackable QR codes: validating destination URLs, minting collision-free
// short ids (with bounded retry against the store's uniqueness constraint),
// rendering the QR image once at creation, and coordinating repository
// operations for lookups, paginated listing, and deactivation.
//
// Service-level errors (e.g., ErrInvalidURL, ErrCodeNotFound) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
	"github.com/tbourn/go-qr-backend/internal/qrimage"
	"github.com/tbourn/go-qr-backend/internal/shortid"
)

// QRCodeRepo defines the repository contract required by QRCodeService.
// Implementations are responsible for persistence of QR code aggregates.
type QRCodeRepo interface {
	// CreateQRCode inserts a new code row; returns repo.ErrDuplicate on a
	// short-id collision so the service can regenerate and retry.
	CreateQRCode(ctx context.Context, db *gorm.DB, code *domain.QRCode) (*domain.QRCode, error)

	// GetActiveQRCode fetches a code by short id, active rows only.
	GetActiveQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error)

	// GetQRCode fetches a code by short id regardless of status.
	GetQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error)

	// CountQRCodes returns the number of active codes for pagination.
	CountQRCodes(ctx context.Context, db *gorm.DB) (int64, error)

	// ListQRCodesPage returns a page of active code summaries.
	ListQRCodesPage(ctx context.Context, db *gorm.DB, sortBy string, descending bool, offset, limit int) ([]domain.QRCode, error)

	// DeactivateQRCode soft-deletes a code; idempotent for live rows.
	DeactivateQRCode(ctx context.Context, db *gorm.DB, shortID string) error
}

// QRCodeService provides code-level operations: issuance with collision
// retry, lookups, paginated listing, and deactivation.
type QRCodeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the code repository used by this service.
	Repo QRCodeRepo
	// Gen mints short identifiers.
	Gen shortid.Generator
	// Renderer produces the QR image embedded in each new record.
	Renderer qrimage.Renderer
	// ImageOpts are passed to the renderer on every creation.
	ImageOpts qrimage.Options

	// BaseURL is the public prefix for tracking links, e.g. "https://qr.example.com".
	BaseURL string
	// MaxIDAttempts bounds the regenerate-on-collision loop.
	MaxIDAttempts int
}

// NewQRCodeService constructs a QRCodeService with the default generator,
// renderer, and retry bound.
func NewQRCodeService(db *gorm.DB, r QRCodeRepo, baseURL string) *QRCodeService {
	return &QRCodeService{
		DB:            db,
		Repo:          r,
		Gen:           shortid.New(),
		Renderer:      qrimage.PNGRenderer{},
		ImageOpts:     qrimage.DefaultOptions(),
		BaseURL:       strings.TrimRight(baseURL, "/"),
		MaxIDAttempts: 5,
	}
}

// Create validates originalURL, mints a unique short id, renders the QR image
// for the derived tracking URL, and persists the record.
//
// Semantics:
//   - originalURL must be an absolute http(s) URL; otherwise ErrInvalidURL
//     and nothing is persisted.
//   - createdBy is free-text attribution; blank becomes "anonymous" at the
//     store boundary.
//   - On a short-id collision the id is regenerated and the insert retried,
//     up to MaxIDAttempts; exhaustion yields ErrIDSpaceExhausted. An existing
//     record is never overwritten.
//   - Renderer failures propagate and fail the creation.
//
// The returned record is complete, including the rendered image.
func (s *QRCodeService) Create(ctx context.Context, originalURL, createdBy string) (*domain.QRCode, error) {
	originalURL = strings.TrimSpace(originalURL)
	if err := validateDestinationURL(originalURL); err != nil {
		return nil, err
	}

	attempts := s.MaxIDAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		id, err := s.Gen.Generate()
		if err != nil {
			return nil, err
		}
		trackingURL := s.BaseURL + "/track/" + id

		image, err := s.Renderer.Render(trackingURL, s.ImageOpts)
		if err != nil {
			return nil, err
		}

		code := &domain.QRCode{
			ShortID:     id,
			OriginalURL: originalURL,
			TrackingURL: trackingURL,
			QRCodeImage: image,
			CreatedBy:   strings.TrimSpace(createdBy),
		}
		created, err := s.Repo.CreateQRCode(ctx, s.DB, code)
		if err == nil {
			codesCreated.Inc()
			return created, nil
		}
		if !isDuplicate(err) {
			return nil, err
		}
		// Collision: loop and regenerate.
	}
	return nil, ErrIDSpaceExhausted
}

// Get returns the full active record for shortID, or ErrCodeNotFound.
func (s *QRCodeService) Get(ctx context.Context, shortID string) (*domain.QRCode, error) {
	c, err := s.Repo.GetActiveQRCode(ctx, s.DB, shortID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns a page of active code summaries plus the total count.
// It applies defaults for invalid page/pageSize; pageSize is capped at 100.
// order accepts "asc"/"desc" (default desc); sortBy accepts the JSON field
// names understood by the repository (createdAt, updatedAt, scans).
func (s *QRCodeService) List(ctx context.Context, page, pageSize int, sortBy, order string) ([]domain.QRCode, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	descending := !strings.EqualFold(order, "asc")

	total, err := s.Repo.CountQRCodes(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.QRCode{}, 0, nil
	}

	items, err := s.Repo.ListQRCodesPage(ctx, s.DB, sortBy, descending, offset, pageSize)
	return items, total, err
}

// Deactivate soft-deletes the code identified by shortID. The operation is
// terminal and idempotent; ErrCodeNotFound is returned only when the id has
// no record at all.
func (s *QRCodeService) Deactivate(ctx context.Context, shortID string) error {
	if err := s.Repo.DeactivateQRCode(ctx, s.DB, shortID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	return nil
}

// validateDestinationURL accepts only absolute http/https URLs with a host.
// Everything else (empty input, relative paths, opaque schemes) is
// ErrInvalidURL.
func validateDestinationURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// isDuplicate reports whether err marks a unique-constraint collision. The
// repo returns a stable sentinel, but raw driver errors are matched too for
// safety.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
