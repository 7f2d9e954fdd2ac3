// Package services defines the business logic for issuing QR codes, tracking
// scans, and deriving analytics. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrInvalidURL is returned when a creation request carries a missing or
	// malformed destination URL. Only absolute http/https URLs are accepted.
	ErrInvalidURL = errors.New("invalid destination url")

	// ErrCodeNotFound indicates that the requested short id does not exist or
	// has been deactivated.
	ErrCodeNotFound = errors.New("qr code not found")

	// ErrIDSpaceExhausted is returned when repeated short-id generation kept
	// colliding with existing rows. With 48 bits of entropy this is
	// practically unreachable and signals a broken random source or store.
	ErrIDSpaceExhausted = errors.New("short id space exhausted")
)
