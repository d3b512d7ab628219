package repository

import (
	"github.com/MarcelWeber/TeamPilot/app/models"
	"gorm.io/gorm"
)

// planChangeRequestRepository implements the PlanChangeRequestRepository interface
type planChangeRequestRepository struct {
	db *gorm.DB
}

// NewPlanChangeRequestRepository creates a new plan change request repository instance
func NewPlanChangeRequestRepository(db *gorm.DB) PlanChangeRequestRepository {
	return &planChangeRequestRepository{db: db}
}

// Create creates a new plan change request in the database
func (r *planChangeRequestRepository) Create(req *models.PlanChangeRequest) error {
	return r.db.Create(req).Error
}

// GetByID retrieves a plan change request by its ID
func (r *planChangeRequestRepository) GetByID(id uint) (*models.PlanChangeRequest, error) {
	var req models.PlanChangeRequest
	err := r.db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListOpen retrieves open requests for the admin review queue
func (r *planChangeRequestRepository) ListOpen(offset, limit int) ([]models.PlanChangeRequest, error) {
	var reqs []models.PlanChangeRequest
	err := r.db.Where("status = ?", models.ChangeRequestStatusOpen).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// Close marks a request as handled
func (r *planChangeRequestRepository) Close(id uint) error {
	return r.db.Model(&models.PlanChangeRequest{}).
		Where("id = ?", id).
		Update("status", models.ChangeRequestStatusClosed).Error
}
