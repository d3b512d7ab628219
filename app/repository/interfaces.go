package repository

import (
	"github.com/MarcelWeber/TeamPilot/app/models"
	"gorm.io/gorm"
)

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetBySlug(slug string) (*models.Plan, error)
	GetDefault() (*models.Plan, error)
	List(activeOnly bool) ([]models.Plan, error)
	Update(plan *models.Plan) error
	Deactivate(id uint) error
	UpsertPricing(pricing *models.PlanPricing) error
	DeletePricing(planID uint, period string) error
}

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id uint) (*models.Organization, error)
	GetByUUID(uuid string) (*models.Organization, error)
	GetByAPIKeyHash(hash string) (*models.Organization, error)
	GetWithPlan(id uint) (*models.Organization, error)
	Update(org *models.Organization) error
	// UpdatePlanIfCurrent is the compare-and-set plan assignment: the write
	// only happens while the org still holds expectedPlanID. Returns
	// (false, nil) on conflict.
	UpdatePlanIfCurrent(orgID, newPlanID, expectedPlanID uint) (bool, error)
}

// PaymentOrderRepository defines the interface for payment order operations
type PaymentOrderRepository interface {
	Create(order *models.PaymentOrder) error
	GetByID(id uint) (*models.PaymentOrder, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.PaymentOrder, error)
	Update(order *models.PaymentOrder) error
	// UpdateStatusIf advances an order's status only from an expected prior
	// status, so a duplicate callback cannot rewind a terminal order.
	UpdateStatusIf(orderID uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error)
	ListOpenOlderThan(minutes int) ([]models.PaymentOrder, error)
	HasOpenOrderForOrganization(orgID uint) (bool, error)
}

// PlanChangeRequestRepository defines the interface for downgrade tickets
type PlanChangeRequestRepository interface {
	Create(req *models.PlanChangeRequest) error
	GetByID(id uint) (*models.PlanChangeRequest, error)
	ListOpen(offset, limit int) ([]models.PlanChangeRequest, error)
	Close(id uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Plan              PlanRepository
	Organization      OrganizationRepository
	PaymentOrder      PaymentOrderRepository
	PlanChangeRequest PlanChangeRequestRepository
}

// NewRepositories creates all repositories backed by the given DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Plan:              NewPlanRepository(db),
		Organization:      NewOrganizationRepository(db),
		PaymentOrder:      NewPaymentOrderRepository(db),
		PlanChangeRequest: NewPlanChangeRequestRepository(db),
	}
}
