package dto

import (
	"time"

	"github.com/spec-kit/order-service/internal/domain"
)

// AdminLogResponse represents one audit trail entry.
type AdminLogResponse struct {
	ID         int64     `json:"id"`
	AdminID    int64     `json:"admin_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *int64    `json:"target_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAdminLogResponses maps audit entries.
func NewAdminLogResponses(entries []domain.AdminLog) []AdminLogResponse {
	result := make([]AdminLogResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, AdminLogResponse{
			ID:         entry.ID,
			AdminID:    entry.AdminID,
			Action:     entry.Action,
			TargetType: entry.TargetType,
			TargetID:   entry.TargetID,
			Details:    entry.Details,
			IPAddress:  entry.IPAddress,
			UserAgent:  entry.UserAgent,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return result
}
