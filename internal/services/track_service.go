// Package services – TrackService
//
// This file implements the redirect resolver, the request-time entry point
// for short links: look up the active code, record the scan, hand the
// destination URL back to the transport layer for the actual redirect.
//
// The deliberate tradeoff here is availability over accounting: once the
// destination is known, the visitor is redirected even if persisting the
// scan fails. Recording runs on a context detached from the request's
// cancellation so an aborted client cannot cut the accounting short.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
)

// ScanMeta carries the request metadata captured for a scan event. Empty
// fields receive the documented "Unknown" sentinels at the store boundary.
type ScanMeta struct {
	UserAgent string
	IP        string
}

// TrackRepo defines the repository contract required by TrackService.
type TrackRepo interface {
	// GetActiveQRCode fetches a code by short id, active rows only.
	GetActiveQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error)

	// RecordScan appends a scan event and bumps the code's counter atomically.
	RecordScan(ctx context.Context, db *gorm.DB, shortID string, scan *domain.Scan) (*domain.QRCode, error)
}

// TrackService resolves short ids to destination URLs and records scans.
type TrackService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the tracking repository used by this service.
	Repo TrackRepo
}

// Resolve looks up the active code for shortID, records a scan event built
// from meta, and returns the destination URL.
//
// Semantics:
//   - Unknown or deactivated ids yield ErrCodeNotFound with no scan recorded.
//   - Scan recording runs with context.WithoutCancel: a caller that aborts
//     after the lookup does not cancel the write.
//   - A recording failure is logged and counted but never surfaces to the
//     caller; the destination is returned regardless. The destination URL is
//     immutable, so pre- and post-mutation records agree on it.
func (s *TrackService) Resolve(ctx context.Context, shortID string, meta ScanMeta) (string, error) {
	code, err := s.Repo.GetActiveQRCode(ctx, s.DB, shortID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCodeNotFound
		}
		return "", err
	}

	scan := &domain.Scan{
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}

	// Detach from request cancellation: scan accounting favors eventual
	// accuracy over strict request-lifetime binding.
	recordCtx := context.WithoutCancel(ctx)
	updated, err := s.Repo.RecordScan(recordCtx, s.DB, shortID, scan)
	if err != nil {
		scanRecordFailures.Inc()
		log.Error().
			Err(err).
			Str("short_id", shortID).
			Msg("scan recording failed; redirect proceeds")
		return code.OriginalURL, nil
	}

	scansRecorded.Inc()
	log.Debug().
		Str("short_id", shortID).
		Int64("total_scans", updated.Scans).
		Msg("scan recorded")

	return code.OriginalURL, nil
}
