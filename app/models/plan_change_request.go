package models

import "time"

const (
	ChangeRequestStatusOpen   = "open"
	ChangeRequestStatusClosed = "closed"
)

// PlanChangeRequest is the persisted manual-contact artifact for a
// downgrade. Downgrades are never self-service: an automated switch could
// leave usage above the new ceilings with no reconciliation, so a human
// reviews each request. No payment is ever attached to these rows.
type PlanChangeRequest struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrganizationID  uint      `gorm:"not null;index" json:"organization_id"`
	CurrentPlanID   uint      `gorm:"not null" json:"current_plan_id"`
	RequestedPlanID uint      `gorm:"not null" json:"requested_plan_id"`
	Message         string    `gorm:"type:text" json:"message,omitempty"`
	Status          string    `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
