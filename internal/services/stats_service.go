// Package services – StatsService
//
// This file implements the analytics aggregator: a read-only derivation of
// summary statistics from a code's scan history. Summarize is a pure
// function over the record and its events; StatsService wraps it with the
// repository loads needed to serve the stats endpoint.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
)

// dayFormat is the UTC calendar-day key used for scansByDay buckets.
const dayFormat = "2006-01-02"

// recentScanWindow is how many trailing events the recent-scans view keeps.
const recentScanWindow = 10

// Stats is the summary view derived from a code's scan history.
type Stats struct {
	// TotalScans mirrors the code's authoritative counter.
	TotalScans int64 `json:"totalScans"`
	// RecentScans holds the last events in reverse chronological order
	// (most recent first), at most recentScanWindow entries.
	RecentScans []domain.Scan `json:"recentScans"`
	// ScansByDay maps UTC calendar days (YYYY-MM-DD) to event counts.
	// Days without events are absent, not zero-filled.
	ScansByDay map[string]int `json:"scansByDay"`
	// CreatedAt is the code's creation time, passed through unchanged.
	CreatedAt time.Time `json:"createdAt"`
}

// ScanHistoryRepo defines the repository contract required by StatsService.
type ScanHistoryRepo interface {
	// GetActiveQRCode fetches a code by short id, active rows only.
	GetActiveQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error)

	// ListScans returns the full scan history in chronological order.
	ListScans(ctx context.Context, db *gorm.DB, shortID string) ([]domain.Scan, error)
}

// StatsService serves per-code scan statistics. All operations are
// read-only; a possibly-slightly-stale snapshot is acceptable, so no locks
// are taken.
type StatsService struct {
	// DB is the GORM handle used for reads.
	DB *gorm.DB
	// Repo loads codes and their histories.
	Repo ScanHistoryRepo
}

// Get loads the active code for shortID and summarizes its scan history.
// Unknown or deactivated ids yield ErrCodeNotFound.
func (s *StatsService) Get(ctx context.Context, shortID string) (*Stats, error) {
	code, err := s.Repo.GetActiveQRCode(ctx, s.DB, shortID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	history, err := s.Repo.ListScans(ctx, s.DB, shortID)
	if err != nil {
		return nil, err
	}

	return Summarize(code, history), nil
}

// Summarize derives Stats from a code and its chronological scan history.
// It is pure: one pass over history, no persistence side effects.
func Summarize(code *domain.QRCode, history []domain.Scan) *Stats {
	stats := &Stats{
		TotalScans: code.Scans,
		ScansByDay: make(map[string]int),
		CreatedAt:  code.CreatedAt,
	}

	for _, scan := range history {
		day := scan.Timestamp.UTC().Format(dayFormat)
		stats.ScansByDay[day]++
	}

	// Last N events, newest first.
	start := len(history) - recentScanWindow
	if start < 0 {
		start = 0
	}
	recent := history[start:]
	stats.RecentScans = make([]domain.Scan, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		stats.RecentScans = append(stats.RecentScans, recent[i])
	}

	return stats
}
