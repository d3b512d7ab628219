package models

import "time"

// Payment order statuses. One row moves strictly forward through these;
// terminal states are never left again.
const (
	OrderStatusCreated            = "created"
	OrderStatusCheckoutOpen       = "checkout_open"
	OrderStatusGatewayFailed      = "gateway_failed"
	OrderStatusUserDismissed      = "user_dismissed"
	OrderStatusVerified           = "verified"
	OrderStatusVerificationFailed = "verification_failed"
	OrderStatusApplied            = "applied"
	OrderStatusApplyFailed        = "apply_failed"
	OrderStatusExpired            = "expired"
)

// PaymentOrder is one attempt to pay for one plan switch. A fresh row is
// created for every attempt and never reused, so a stale or duplicated
// gateway callback can only ever resolve against the order it was minted
// for. PrevPlanID snapshots the organization's plan at creation time and is
// the compare-and-set guard for the apply step. AmountCents snapshots the
// pricing at creation so later catalog edits cannot drift the charge.
type PaymentOrder struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ReceiptID      string `gorm:"type:varchar(36);not null;uniqueIndex" json:"receipt_id"`
	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	PlanID         uint   `gorm:"not null" json:"plan_id"`
	PricingID      uint   `gorm:"not null" json:"pricing_id"`
	PrevPlanID     uint   `gorm:"not null" json:"prev_plan_id"`
	AmountCents    int64  `gorm:"not null" json:"amount_cents"`
	Currency       string `gorm:"type:varchar(3);not null" json:"currency"`
	GatewayOrderID string `gorm:"type:varchar(64);index:ux_payment_orders_gateway_order,unique" json:"gateway_order_id"`
	PaymentID      string `gorm:"type:varchar(64)" json:"payment_id,omitempty"`
	FailureReason  string `gorm:"type:text" json:"failure_reason,omitempty"`

	Status    string    `gorm:"type:varchar(24);not null;default:'created';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the order can no longer change state.
func (o *PaymentOrder) IsTerminal() bool {
	switch o.Status {
	case OrderStatusGatewayFailed, OrderStatusUserDismissed,
		OrderStatusVerificationFailed, OrderStatusApplied,
		OrderStatusApplyFailed, OrderStatusExpired:
		return true
	default:
		return false
	}
}
