package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrgStatusActive   = "active"
	OrgStatusDisabled = "disabled"
)

// Organization is a tenant. PlanID is the single active plan assignment:
// never zero, never more than one, defaulted to the catalog's default plan
// on create. Only the plan applier writes PlanID after creation.
type Organization struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UUID       string `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	Name       string `gorm:"type:varchar(150);not null" json:"name"`
	Status     string `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	PlanID     uint   `gorm:"not null;index" json:"plan_id"`
	Plan       *Plan  `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	APIKeyHash string `gorm:"type:varchar(64);index" json:"-"`

	// Denormalized usage counters, displayed as headroom against the plan
	// ceilings. Maintained by the org/user CRUD paths, read-only here.
	UserCount int `gorm:"not null;default:0" json:"user_count"`
	AppCount  int `gorm:"not null;default:0" json:"app_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID and, when no plan was chosen, falls back to the
// catalog default so the plan assignment stays a total function.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	if o.PlanID == 0 {
		var def Plan
		if err := tx.Where("is_default = ?", true).First(&def).Error; err != nil {
			return err
		}
		o.PlanID = def.ID
	}
	return nil
}

// HashAPIKey returns the SHA-256 lookup hash stored for an org API key.
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
