// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the scan event log: the append +
// increment hot path and the read paths used by analytics.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
)

// RecordScan appends a scan event for shortID and increments the parent
// code's counter by exactly one, as a single transaction.
//
// The increment is a conditional SQL expression (scans = scans + 1), never a
// read-modify-write in the application, so two scans for the same code
// arriving concurrently cannot lose an update. Because the event insert and
// the counter bump commit together, qr_codes.scans always equals the number
// of rows in scans for that code.
//
// Scan rows are append-only; nothing in the application mutates or deletes
// them after this insert.
//
// Returns the refreshed QRCode on success, or ErrNotFound when shortID has no
// active row (in which case the insert is rolled back and nothing persists).
func RecordScan(ctx context.Context, db *gorm.DB, shortID string, scan *domain.Scan) (*domain.QRCode, error) {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now().UTC()
	}
	scan.ShortID = shortID
	applyScanDefaults(scan)

	var updated domain.QRCode
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.QRCode{}).
			Where("short_id = ? AND status = ?", shortID, domain.StatusActive).
			Updates(map[string]any{
				"scans":      gorm.Expr("scans + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		return tx.Where("short_id = ?", shortID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListScans returns all scan events for shortID in chronological order
// (oldest first). Analytics derives recency windows and day buckets from this
// in a single pass.
func ListScans(ctx context.Context, db *gorm.DB, shortID string) ([]domain.Scan, error) {
	var out []domain.Scan
	err := db.WithContext(ctx).
		Where("short_id = ?", shortID).
		Order("timestamp asc, id asc").
		Find(&out).Error
	return out, err
}

// CountScans returns the number of scan events recorded for shortID.
func CountScans(ctx context.Context, db *gorm.DB, shortID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Scan{}).
		Where("short_id = ?", shortID).
		Count(&total).Error
	return total, err
}

// applyScanDefaults fills the documented "Unknown" sentinels for metadata the
// request did not carry. Timestamps are normalized to UTC for stable day
// bucketing.
func applyScanDefaults(s *domain.Scan) {
	if s.UserAgent == "" {
		s.UserAgent = "Unknown"
	}
	if s.IP == "" {
		s.IP = "Unknown"
	}
	if s.Country == "" {
		s.Country = "Unknown"
	}
	if s.City == "" {
		s.City = "Unknown"
	}
	s.Timestamp = s.Timestamp.UTC()
}
