package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/app/repository"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/upgrade"
)

// upgradeOrchestrator is wired once at startup by the router.
var upgradeOrchestrator *upgrade.Orchestrator

// SetUpgradeOrchestrator installs the orchestrator used by the checkout and
// downgrade handlers.
func SetUpgradeOrchestrator(o *upgrade.Orchestrator) {
	upgradeOrchestrator = o
}

type startUpgradeRequest struct {
	PlanID        uint   `json:"plan_id"`
	PlanSlug      string `json:"plan_slug"`
	BillingPeriod string `json:"billing_period"`
}

type checkoutCallbackRequest struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Outcome        string `json:"outcome"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
	Reason         string `json:"reason"`
}

type downgradeRequest struct {
	PlanID   uint   `json:"plan_id"`
	PlanSlug string `json:"plan_slug"`
}

// HandleStartUpgrade opens a checkout for a purchasable upgrade. The response
// carries everything the embedded checkout needs to collect the payment.
func HandleStartUpgrade(c *fiber.Ctx) error {
	org := requireOrganization(c)
	if org == nil {
		return nil
	}
	if upgradeOrchestrator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "Upgrades are not available right now")
	}

	var req startUpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	period := strings.TrimSpace(req.BillingPeriod)
	if !models.IsValidBillingPeriod(period) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "billing_period must be monthly or yearly")
	}
	planID, err := resolvePlanID(req.PlanID, req.PlanSlug)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Plan not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := upgradeOrchestrator.StartUpgrade(ctx, org.ID, planID, period)
	if err != nil {
		return upgradeErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checkout": session})
}

// HandleCheckoutCallback is the terminal report from the embedded checkout.
// An authorized payment is verified and applied; a failure or dismissal
// closes the order and frees the organization for a fresh attempt.
func HandleCheckoutCallback(c *fiber.Ctx) error {
	org := requireOrganization(c)
	if org == nil {
		return nil
	}
	if upgradeOrchestrator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "Upgrades are not available right now")
	}

	var req checkoutCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	if req.GatewayOrderID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "gateway_order_id is required")
	}
	if err := ensureOrderOwnership(org.ID, req.GatewayOrderID); err != nil {
		return upgradeErrorResponse(c, err)
	}

	var (
		state upgrade.State
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(req.Outcome)) {
	case "authorized":
		if req.PaymentID == "" || req.Signature == "" {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", "payment_id and signature are required for an authorized outcome")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		state, err = upgradeOrchestrator.ConfirmPayment(ctx, upgrade.Callback{
			GatewayOrderID: req.GatewayOrderID,
			PaymentID:      req.PaymentID,
			Signature:      req.Signature,
		})
	case "failed":
		reason := req.Reason
		if reason == "" {
			reason = "payment failed"
		}
		state, err = upgradeOrchestrator.FailCheckout(req.GatewayOrderID, reason)
	case "dismissed":
		state, err = upgradeOrchestrator.DismissCheckout(req.GatewayOrderID)
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "outcome must be authorized, failed or dismissed")
	}

	if err != nil {
		return upgradeErrorResponseWithState(c, state, err)
	}
	return c.JSON(fiber.Map{"state": state, "terminal": state.IsTerminal()})
}

// HandleRequestDowngrade records a downgrade request and returns the
// pre-filled support contact. Downgrades never touch the payment gateway.
func HandleRequestDowngrade(c *fiber.Ctx) error {
	org := requireOrganization(c)
	if org == nil {
		return nil
	}
	if upgradeOrchestrator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "Plan changes are not available right now")
	}

	var req downgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	planID, err := resolvePlanID(req.PlanID, req.PlanSlug)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Plan not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ticket, err := upgradeOrchestrator.RequestDowngrade(ctx, org.ID, planID)
	if err != nil {
		return upgradeErrorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"contact": ticket})
}

func resolvePlanID(planID uint, planSlug string) (uint, error) {
	if planID != 0 {
		return planID, nil
	}
	slug := strings.TrimSpace(planSlug)
	if slug == "" {
		return 0, gorm.ErrRecordNotFound
	}
	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetBySlug(slug)
	if err != nil {
		return 0, err
	}
	return plan.ID, nil
}

// ensureOrderOwnership rejects callbacks naming an order that belongs to a
// different organization.
func ensureOrderOwnership(orgID uint, gatewayOrderID string) error {
	order, err := repository.GetGlobalFactory().GetPaymentOrderRepository().GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		return err
	}
	if order.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func upgradeErrorResponse(c *fiber.Ctx, err error) error {
	return upgradeErrorResponseWithState(c, upgrade.StateIdle, err)
}

func upgradeErrorResponseWithState(c *fiber.Ctx, state upgrade.State, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, upgrade.ErrDowngradeRequiresContact):
		return jsonError(c, fiber.StatusConflict, "downgrade_requires_contact", "Downgrades are handled through support, not checkout")
	case errors.Is(err, upgrade.ErrNotActionable):
		return jsonError(c, fiber.StatusConflict, "not_actionable", "This plan change is not available")
	case errors.Is(err, upgrade.ErrContactSales):
		return jsonError(c, fiber.StatusConflict, "contact_sales", "This plan has no self-service price for the requested period")
	case errors.Is(err, upgrade.ErrCheckoutInProgress):
		return jsonError(c, fiber.StatusConflict, "checkout_in_progress", "A checkout is already in progress for this organization")
	case errors.Is(err, upgrade.ErrGatewayUnavailable):
		return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable", "The payment gateway rejected the order, please retry")
	case errors.Is(err, upgrade.ErrVerificationFailed):
		return jsonError(c, fiber.StatusBadRequest, "verification_failed", "Payment verification failed, the attempt was flagged for manual review")
	case errors.Is(err, upgrade.ErrOrderClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order_closed", "message": "The payment order is already closed", "state": state})
	case errors.Is(err, upgrade.ErrApplyConflict):
		return jsonError(c, fiber.StatusConflict, "apply_failed", "The plan changed while the payment was in flight, support has been flagged")
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Plan change failed")
	}
}
