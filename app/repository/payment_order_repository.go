package repository

import (
	"fmt"
	"time"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"gorm.io/gorm"
)

// paymentOrderRepository implements the PaymentOrderRepository interface
type paymentOrderRepository struct {
	db *gorm.DB
}

// NewPaymentOrderRepository creates a new payment order repository instance
func NewPaymentOrderRepository(db *gorm.DB) PaymentOrderRepository {
	return &paymentOrderRepository{db: db}
}

// Create creates a new payment order in the database
func (r *paymentOrderRepository) Create(order *models.PaymentOrder) error {
	return r.db.Create(order).Error
}

// GetByID retrieves a payment order by its ID
func (r *paymentOrderRepository) GetByID(id uint) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByGatewayOrderID retrieves a payment order by its gateway order handle
func (r *paymentOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update saves payment order fields
func (r *paymentOrderRepository) Update(order *models.PaymentOrder) error {
	return r.db.Save(order).Error
}

// UpdateStatusIf advances the order status with a guarded conditional write.
// Duplicate or out-of-order callbacks lose the race here instead of
// overwriting a terminal status.
func (r *paymentOrderRepository) UpdateStatusIf(orderID uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": toStatus}
	for k, v := range updates {
		if k == "status" {
			return false, fmt.Errorf("status must not be set via updates map")
		}
		values[k] = v
	}
	tx := r.db.Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", orderID, fromStatus).
		Updates(values)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListOpenOlderThan returns non-terminal orders created more than the given
// number of minutes ago (expiry sweep input)
func (r *paymentOrderRepository) ListOpenOlderThan(minutes int) ([]models.PaymentOrder, error) {
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	var orders []models.PaymentOrder
	err := r.db.
		Where("status IN ? AND created_at < ?",
			[]string{models.OrderStatusCreated, models.OrderStatusCheckoutOpen, models.OrderStatusVerified},
			cutoff).
		Find(&orders).Error
	return orders, err
}

// HasOpenOrderForOrganization reports whether the organization has a
// checkout in flight
func (r *paymentOrderRepository) HasOpenOrderForOrganization(orgID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentOrder{}).
		Where("organization_id = ? AND status IN ?", orgID,
			[]string{models.OrderStatusCreated, models.OrderStatusCheckoutOpen}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
