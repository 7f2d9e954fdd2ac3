// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the QRCode model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a code is not found, functions return ErrNotFound (an alias of
//     gorm.ErrRecordNotFound).
//   - CreateQRCode maps short-id uniqueness violations to ErrDuplicate so the
//     service layer can regenerate and retry without parsing driver strings.
//   - On other DB errors (connectivity issues, etc.) the raw gorm error is
//     propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-qr-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation, e.g. a short-id
// collision on insert or a replayed idempotency record.
var ErrDuplicate = errors.New("duplicate")

// sortableColumns is the allowlist of columns accepted by ListQRCodesPage.
// Requests asking for anything else fall back to created_at.
var sortableColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"scans":     "scans",
}

// listSummaryColumns are the columns loaded for list views. QRCodeImage is
// excluded to keep list payloads small; the full record remains available via
// GetActiveQRCode.
const listSummaryColumns = "id, short_id, original_url, tracking_url, scans, status, created_by, created_at, updated_at"

// CreateQRCode inserts a new QRCode row. The row is created StatusActive with
// a zero scan counter, a UUID primary key, and UTC timestamps. CreatedBy
// falls back to "anonymous" when blank.
//
// On a short-id uniqueness violation it returns ErrDuplicate; the caller is
// expected to regenerate the id and retry. Existing rows are never
// overwritten.
func CreateQRCode(ctx context.Context, db *gorm.DB, code *domain.QRCode) (*domain.QRCode, error) {
	now := time.Now().UTC()
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedBy == "" {
		code.CreatedBy = "anonymous"
	}
	code.Status = domain.StatusActive
	code.Scans = 0
	code.CreatedAt = now
	code.UpdatedAt = now

	if err := db.WithContext(ctx).Create(code).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return code, nil
}

// GetActiveQRCode fetches a single code by short id, restricted to
// StatusActive rows. Deactivated or unknown ids yield ErrNotFound.
func GetActiveQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error) {
	var c domain.QRCode
	err := db.WithContext(ctx).
		Where("short_id = ? AND status = ?", shortID, domain.StatusActive).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetQRCode fetches a single code by short id regardless of status. Used by
// deactivation and internal diagnostics; public lookups must go through
// GetActiveQRCode.
func GetQRCode(ctx context.Context, db *gorm.DB, shortID string) (*domain.QRCode, error) {
	var c domain.QRCode
	err := db.WithContext(ctx).
		Where("short_id = ?", shortID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountQRCodes returns the total number of active codes.
// On DB error, it returns the error.
func CountQRCodes(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.QRCode{}).
		Where("status = ?", domain.StatusActive).
		Count(&total).Error
	return total, err
}

// ListQRCodesPage returns a page of active code summaries (without the
// rendered image) ordered by sortBy/descending. sortBy accepts the JSON field
// names createdAt, updatedAt, and scans; anything else falls back to
// createdAt. Use CountQRCodes to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListQRCodesPage(ctx context.Context, db *gorm.DB, sortBy string, descending bool, offset, limit int) ([]domain.QRCode, error) {
	col, ok := sortableColumns[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "asc"
	if descending {
		dir = "desc"
	}

	var out []domain.QRCode
	err := db.WithContext(ctx).
		Select(listSummaryColumns).
		Where("status = ?", domain.StatusActive).
		Order(col + " " + dir).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeactivateQRCode flips a code to StatusDeactivated and bumps updated_at.
// The operation is idempotent: deactivating an already-deactivated code
// succeeds without touching the row again. ErrNotFound is returned only when
// no row exists for shortID at all.
func DeactivateQRCode(ctx context.Context, db *gorm.DB, shortID string) error {
	res := db.WithContext(ctx).
		Model(&domain.QRCode{}).
		Where("short_id = ? AND status = ?", shortID, domain.StatusActive).
		Updates(map[string]any{
			"status":     domain.StatusDeactivated,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already deactivated is fine; a missing row is not.
		var n int64
		if err := db.WithContext(ctx).
			Model(&domain.QRCode{}).
			Where("short_id = ?", shortID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
