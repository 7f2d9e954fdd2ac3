// Package domain defines the persistence models for trackable QR codes and
// their scan events. These types are used by GORM for database schema mapping
// and are shared across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed
// code-generation request, keyed by (creator, key). It enables safe retries
// for POST /api/qr/generate: a replayed request returns the originally issued
// code instead of minting a second one.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Creator   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_creator_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_creator_key,priority:2"`
	ShortID   string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
