package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Canonical slugs for the self-service catalog. Custom plans may use any
// slug; only these participate in the fixed tier order.
const (
	PlanSlugFree         = "free"
	PlanSlugStarter      = "starter"
	PlanSlugProfessional = "professional"
	PlanSlugBusiness     = "business"
	PlanSlugEnterprise   = "enterprise"
)

// Plan is a catalog entry an organization can subscribe to. Nullable ceilings
// mean "unlimited". Rows referenced by an active subscription are treated as
// immutable: admin edits never rewrite in-flight orders, which snapshot the
// amount at creation.
type Plan struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Slug         string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"slug" validate:"required,min=1,max=64"`
	Name         string        `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=1,max=100"`
	Description  string        `gorm:"type:text" json:"description,omitempty"`
	MaxUsers     *int          `gorm:"default:null" json:"max_users,omitempty"`
	MaxApps      *int          `gorm:"default:null" json:"max_apps,omitempty"`
	MaxStorageMB *int64        `gorm:"default:null" json:"max_storage_mb,omitempty"`
	IsDefault    bool          `gorm:"default:false;index" json:"is_default"`
	IsActive     bool          `gorm:"default:true;index" json:"is_active"`
	Pricings     []PlanPricing `gorm:"foreignKey:PlanID" json:"pricings,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// PricingFor returns the pricing row for a billing period, or nil when the
// plan has no self-service price for that period ("contact us").
func (p *Plan) PricingFor(period string) *PlanPricing {
	for i := range p.Pricings {
		if p.Pricings[i].BillingPeriod == period {
			return &p.Pricings[i]
		}
	}
	return nil
}

// IsFree reports whether the plan is the free tier: either the canonical
// free slug or a plan whose every price is zero.
func (p *Plan) IsFree() bool {
	if p.Slug == PlanSlugFree {
		return true
	}
	if len(p.Pricings) == 0 {
		return false
	}
	for i := range p.Pricings {
		if p.Pricings[i].PriceCents > 0 {
			return false
		}
	}
	return true
}
