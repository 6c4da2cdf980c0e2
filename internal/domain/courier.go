package domain

import "time"

// Courier is a shipping carrier. TrackingLength, when non-zero, is the exact
// character length a tracking number for this carrier must have.
type Courier struct {
	ID              int64
	Name            string
	Code            string
	TrackingLength  int
	TrackingPattern string
	Status          CatalogStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the courier may be referenced by new orders.
func (c *Courier) IsActive() bool {
	return c.Status == CatalogStatusActive
}

// EnforcesLength reports whether the courier declares a tracking-number length.
func (c *Courier) EnforcesLength() bool {
	return c.TrackingLength > 0
}
