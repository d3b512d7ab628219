package repository

import (
	"errors"
	"strings"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"gorm.io/gorm"
)

// organizationRepository implements the OrganizationRepository interface
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// Create creates a new organization in the database
func (r *organizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// GetByID retrieves an organization by its ID
func (r *organizationRepository) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.First(&org, id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByUUID retrieves an organization by its public UUID
func (r *organizationRepository) GetByUUID(uuid string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Where("uuid = ?", uuid).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByAPIKeyHash resolves an active API key hash to its organization
func (r *organizationRepository) GetByAPIKeyHash(hash string) (*models.Organization, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, errors.New("api key hash is required")
	}
	var org models.Organization
	err := r.db.Where("api_key_hash = ?", trimmed).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetWithPlan retrieves an organization with its active plan and pricing
func (r *organizationRepository) GetWithPlan(id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Preload("Plan").Preload("Plan.Pricings").First(&org, id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Update saves organization fields
func (r *organizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

// UpdatePlanIfCurrent reassigns the organization's plan only while it still
// holds expectedPlanID. Zero affected rows means another attempt won the
// race (or the expectation was stale); the caller must not treat that as
// success.
func (r *organizationRepository) UpdatePlanIfCurrent(orgID, newPlanID, expectedPlanID uint) (bool, error) {
	tx := r.db.Model(&models.Organization{}).
		Where("id = ? AND plan_id = ?", orgID, expectedPlanID).
		Update("plan_id", newPlanID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
