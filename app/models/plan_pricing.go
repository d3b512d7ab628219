package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	BillingPeriodMonthly = "monthly"
	BillingPeriodYearly  = "yearly"
)

// PlanPricing is one purchasable price point of a plan. A plan carries at
// most one row per billing period. Prices are stored in minor units (cents)
// so no float ever reaches the tier resolver or the gateway.
type PlanPricing struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlanID        uint      `gorm:"not null;index:ux_plan_pricings_plan_period,unique,priority:1" json:"plan_id"`
	BillingPeriod string    `gorm:"type:varchar(16);not null;index:ux_plan_pricings_plan_period,unique,priority:2" json:"billing_period"`
	PriceCents    int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidBillingPeriod reports whether the given period is purchasable.
func IsValidBillingPeriod(period string) bool {
	switch period {
	case BillingPeriodMonthly, BillingPeriodYearly:
		return true
	default:
		return false
	}
}

// ParsePriceCents normalizes an admin-supplied price ("29", "29.00", "29,90")
// into minor units. Admin input arrives as strings from forms and imports;
// everything past this function works in int64 cents only.
func ParsePriceCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("price is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if v < 0 {
		return 0, errors.New("price must not be negative")
	}
	return int64(math.Round(v * 100)), nil
}

// FormatPrice renders minor units as a human amount, e.g. 2900 -> "29.00".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
