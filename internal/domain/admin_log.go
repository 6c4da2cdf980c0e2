package domain

import "time"

// AdminLog is an immutable audit trail entry recording an admin mutation.
type AdminLog struct {
	ID         int64
	AdminID    int64
	Action     string
	TargetType string
	TargetID   *int64
	Details    string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
