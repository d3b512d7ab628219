package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/app/repository"
)

type adminPlanRequest struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	MaxUsers     *int   `json:"max_users"`
	MaxApps      *int   `json:"max_apps"`
	MaxStorageMB *int64 `json:"max_storage_mb"`
	IsDefault    bool   `json:"is_default"`
	IsActive     *bool  `json:"is_active"`
}

type adminPricingRequest struct {
	BillingPeriod string `json:"billing_period"`
	// Price accepts "29", "29.90" or "29,90"; stored in cents.
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// HandleAdminListPlans returns the full catalog, inactive plans included.
func HandleAdminListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetPlanRepository().List(false)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}
	return c.JSON(fiber.Map{"plans": plansToJSON(plans)})
}

// HandleAdminCreatePlan creates a catalog entry. Pricing rows are attached
// separately so a plan can exist as contact-only with no price at all.
func HandleAdminCreatePlan(c *fiber.Ctx) error {
	var req adminPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	plan := &models.Plan{
		Slug:         strings.TrimSpace(strings.ToLower(req.Slug)),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		MaxUsers:     req.MaxUsers,
		MaxApps:      req.MaxApps,
		MaxStorageMB: req.MaxStorageMB,
		IsDefault:    req.IsDefault,
		IsActive:     true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := plan.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().Create(plan); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create plan")
	}

	invalidatePlanCatalogCache()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": planToJSON(plan)})
}

// HandleAdminUpdatePlan edits a plan's descriptive fields and ceilings.
// In-flight orders are untouched: they snapshot their amount at creation.
func HandleAdminUpdatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid plan id")
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Plan not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plan")
	}

	var req adminPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	if req.Slug != "" {
		plan.Slug = strings.TrimSpace(strings.ToLower(req.Slug))
	}
	if req.Name != "" {
		plan.Name = strings.TrimSpace(req.Name)
	}
	plan.Description = req.Description
	plan.MaxUsers = req.MaxUsers
	plan.MaxApps = req.MaxApps
	plan.MaxStorageMB = req.MaxStorageMB
	plan.IsDefault = req.IsDefault
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := plan.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := repo.Update(plan); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update plan")
	}

	invalidatePlanCatalogCache()
	return c.JSON(fiber.Map{"plan": planToJSON(plan)})
}

// HandleAdminDeactivatePlan hides a plan from the self-service catalog.
// Organizations already on the plan keep it; plans are never deleted.
func HandleAdminDeactivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid plan id")
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().Deactivate(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Plan not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to deactivate plan")
	}

	invalidatePlanCatalogCache()
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminUpsertPricing sets a plan's price for one billing period.
func HandleAdminUpsertPricing(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid plan id")
	}

	var req adminPricingRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	if !models.IsValidBillingPeriod(req.BillingPeriod) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "billing_period must be monthly or yearly")
	}
	cents, err := models.ParsePriceCents(req.Price)
	if err != nil || cents < 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid price")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	if _, err := repo.GetByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Plan not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plan")
	}

	pricing := &models.PlanPricing{
		PlanID:        uint(id),
		BillingPeriod: req.BillingPeriod,
		PriceCents:    cents,
		Currency:      currency,
	}
	if err := repo.UpsertPricing(pricing); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save pricing")
	}

	invalidatePlanCatalogCache()
	return c.JSON(fiber.Map{"pricing": fiber.Map{
		"plan_id":        pricing.PlanID,
		"billing_period": pricing.BillingPeriod,
		"price_cents":    pricing.PriceCents,
		"currency":       pricing.Currency,
	}})
}

// HandleAdminDeletePricing removes a plan's price for one billing period,
// turning that period into a contact-only offer.
func HandleAdminDeletePricing(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid plan id")
	}
	period := c.Params("period")
	if !models.IsValidBillingPeriod(period) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "billing_period must be monthly or yearly")
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().DeletePricing(uint(id), period); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete pricing")
	}

	invalidatePlanCatalogCache()
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminListChangeRequests lists open downgrade tickets for support.
func HandleAdminListChangeRequests(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	reqs, err := repository.GetGlobalFactory().GetPlanChangeRequestRepository().ListOpen(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load change requests")
	}
	return c.JSON(fiber.Map{"change_requests": reqs})
}

// HandleAdminCloseChangeRequest marks a downgrade ticket as handled.
func HandleAdminCloseChangeRequest(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid change request id")
	}

	repo := repository.GetGlobalFactory().GetPlanChangeRequestRepository()
	if _, err := repo.GetByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Change request not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load change request")
	}
	if err := repo.Close(uint(id)); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to close change request")
	}
	return c.JSON(fiber.Map{"ok": true})
}
