package repository

import (
	"github.com/MarcelWeber/TeamPilot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan in the database
func (r *planRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan with its pricing rows
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Pricings").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetBySlug retrieves a plan by its slug
func (r *planRepository) GetBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Pricings").Where("slug = ?", slug).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetDefault retrieves the catalog's default plan
func (r *planRepository) GetDefault() (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Pricings").Where("is_default = ?", true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// List retrieves all plans, optionally only active ones
func (r *planRepository) List(activeOnly bool) ([]models.Plan, error) {
	var plans []models.Plan
	q := r.db.Preload("Pricings").Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&plans).Error
	return plans, err
}

// Update saves plan fields (never touches in-flight orders, which snapshot
// their amount at creation)
func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// Deactivate removes a plan from the self-service catalog without deleting it
func (r *planRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Plan{}).Where("id = ?", id).Update("is_active", false).Error
}

// UpsertPricing creates or replaces the pricing row for a plan/period pair
func (r *planRepository) UpsertPricing(pricing *models.PlanPricing) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "plan_id"},
			{Name: "billing_period"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"price_cents",
			"currency",
			"updated_at",
		}),
	}).Create(pricing).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("plan_id = ? AND billing_period = ?", pricing.PlanID, pricing.BillingPeriod).
		First(pricing).Error
}

// DeletePricing removes the pricing row for a plan/period pair
func (r *planRepository) DeletePricing(planID uint, period string) error {
	return r.db.Where("plan_id = ? AND billing_period = ?", planID, period).
		Delete(&models.PlanPricing{}).Error
}
