// Package domain defines the persistence models for trackable QR codes and
// their scan events. These types are mapped with GORM and form the core data
// layer of the application.
package domain

import "time"

// CodeStatus is the lifecycle state of a QR code. A code is created Active
// and can only transition to Deactivated (soft delete); deactivated codes
// are excluded from every lookup except repo.GetQRCode.
type CodeStatus string

const (
	// StatusActive marks a code that resolves and records scans.
	StatusActive CodeStatus = "active"
	// StatusDeactivated marks a soft-deleted code. The row is retained for
	// audit/history but is invisible to public lookups.
	StatusDeactivated CodeStatus = "deactivated"
)

// QRCode represents an issued short code with its destination URL, the
// rendered QR image, and a denormalized scan counter. Individual scan events
// live in the scans table (see Scan); the Scans counter is kept in sync with
// that table by repo.RecordScan, which updates both inside one transaction.
//
// Fields:
//   - ShortID: URL-safe random identifier, unique, immutable after creation.
//   - OriginalURL: validated absolute destination URL; immutable (no edit path).
//   - TrackingURL: derived as <base>/track/<shortID>; stored for display and
//     QR embedding.
//   - QRCodeImage: base64 data URL of the rendered PNG, produced once at creation.
//   - Scans: authoritative total scan count, incremented atomically in SQL.
//   - Status: Active or Deactivated (soft delete).
//   - CreatedBy: free-text attribution, defaults to "anonymous".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type QRCode struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	ShortID     string     `json:"shortId"      gorm:"type:varchar(32);not null;uniqueIndex:ux_qr_short_id"`
	OriginalURL string     `json:"originalUrl"  gorm:"type:text;not null"`
	TrackingURL string     `json:"trackingUrl"  gorm:"type:text;not null"`
	QRCodeImage string     `json:"qrCodeImage,omitempty" gorm:"type:text"`
	Scans       int64      `json:"scans"        gorm:"not null;default:0;index:idx_qr_scans"`
	Status      CodeStatus `json:"-"            gorm:"type:varchar(16);not null;default:'active';index"`
	CreatedBy   string     `json:"createdBy"    gorm:"type:varchar(64);not null;default:'anonymous'"`
	CreatedAt   time.Time  `json:"createdAt"    gorm:"index:idx_qr_created"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for QRCode.
func (QRCode) TableName() string { return "qr_codes" }

// IsActive reports whether the code still resolves.
func (q QRCode) IsActive() bool { return q.Status == StatusActive }

// Scan is a single recorded redirect event for a QR code. Rows are
// append-only: nothing in the application updates or deletes them.
//
// Fields:
//   - ShortID: identifier of the scanned code (indexed together with Timestamp).
//   - Timestamp: UTC instant of the scan; used for ordering and day bucketing.
//   - UserAgent / IP: raw request metadata, "Unknown" when absent.
//   - Country / City: reserved for IP geolocation; carry the "Unknown"
//     sentinel until a resolver is integrated.
type Scan struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	ShortID   string    `json:"-"         gorm:"type:varchar(32);not null;index:idx_scans_short_ts,priority:1"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_scans_short_ts,priority:2"`
	UserAgent string    `json:"userAgent" gorm:"type:text;not null;default:'Unknown'"`
	IP        string    `json:"ip"        gorm:"type:varchar(64);not null;default:'Unknown'"`
	Country   string    `json:"country"   gorm:"type:varchar(64);not null;default:'Unknown'"`
	City      string    `json:"city"      gorm:"type:varchar(64);not null;default:'Unknown'"`

	// QRCode is the parent code. Scan rows would be cascade-deleted only if
	// the parent row were physically removed, which the application never does.
	QRCode QRCode `json:"-" gorm:"foreignKey:ShortID;references:ShortID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Scan.
func (Scan) TableName() string { return "scans" }
