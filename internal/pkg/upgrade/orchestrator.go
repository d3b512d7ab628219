package upgrade

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/app/repository"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/gateway"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/mail"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/tier"
)

// CheckoutSession is the order handle handed to the interactive checkout.
type CheckoutSession struct {
	OrderID        uint   `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	GatewayKeyID   string `json:"gateway_key_id"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	PlanSlug       string `json:"plan_slug"`
	BillingPeriod  string `json:"billing_period"`
}

// Callback is the terminal confirmation the checkout posts back for an
// authorized payment.
type Callback struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Orchestrator drives one upgrade attempt end to end: tier resolution,
// order creation, checkout hand-off, verification, plan apply. All
// collaborators are injected; there is no package-global gateway handle.
type Orchestrator struct {
	repos   *repository.Repositories
	gateway gateway.Client
	applier *Applier
	locks   Locker

	// secret signs/verifies payment confirmations.
	secret string
	// supportAddress receives downgrade tickets.
	supportAddress string

	// sendMail and enqueueRetry are swappable for tests and to avoid a
	// package cycle with the job queue.
	sendMail     func(to, subject, body string) error
	enqueueRetry func(orderID uint) error
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(repos *repository.Repositories, gw gateway.Client, locks Locker, secret, supportAddress string) *Orchestrator {
	return &Orchestrator{
		repos:          repos,
		gateway:        gw,
		applier:        NewApplier(repos.Organization),
		locks:          locks,
		secret:         secret,
		supportAddress: supportAddress,
		sendMail:       mail.SendMail,
	}
}

// SetMailer overrides the outbound mailer (tests).
func (o *Orchestrator) SetMailer(fn func(to, subject, body string) error) {
	o.sendMail = fn
}

// SetRetryEnqueuer wires the background retry hook for failed applies.
func (o *Orchestrator) SetRetryEnqueuer(fn func(orderID uint) error) {
	o.enqueueRetry = fn
}

// StartUpgrade resolves the tier relation and, for a purchasable upgrade,
// mints a fresh payment order against the gateway. Exactly one checkout per
// organization may be open at a time.
func (o *Orchestrator) StartUpgrade(ctx context.Context, orgID, planID uint, period string) (*CheckoutSession, error) {
	if !models.IsValidBillingPeriod(period) {
		return nil, fmt.Errorf("invalid billing period %q", period)
	}

	org, err := o.repos.Organization.GetWithPlan(orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	target, err := o.repos.Plan.GetByID(planID)
	if err != nil {
		return nil, fmt.Errorf("load target plan: %w", err)
	}
	if !target.IsActive {
		return nil, ErrNotActionable
	}

	switch tier.Compare(org.Plan, target, period) {
	case tier.Downgrade:
		return nil, ErrDowngradeRequiresContact
	case tier.Equal:
		return nil, ErrNotActionable
	}

	pricing := target.PricingFor(period)
	if pricing == nil || pricing.PriceCents <= 0 {
		// Zero or absent prices never reach the order initiator.
		return nil, ErrContactSales
	}

	acquired, err := o.locks.Acquire(orgID)
	if err != nil {
		return nil, fmt.Errorf("checkout lock: %w", err)
	}
	if !acquired {
		return nil, ErrCheckoutInProgress
	}

	order := &models.PaymentOrder{
		ReceiptID:      uuid.New().String(),
		OrganizationID: org.ID,
		PlanID:         target.ID,
		PricingID:      pricing.ID,
		PrevPlanID:     org.PlanID,
		AmountCents:    pricing.PriceCents,
		Currency:       pricing.Currency,
		Status:         models.OrderStatusCreated,
	}
	if err := o.repos.PaymentOrder.Create(order); err != nil {
		o.releaseLock(orgID)
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	gwOrder, err := o.gateway.CreateOrder(ctx, gateway.CreateOrderInput{
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
		Receipt:     order.ReceiptID,
		Notes: map[string]string{
			"organization": org.UUID,
			"plan":         target.Slug,
			"period":       period,
		},
	})
	if err != nil {
		if _, uerr := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
			models.OrderStatusCreated, models.OrderStatusGatewayFailed,
			map[string]interface{}{"failure_reason": err.Error()}); uerr != nil {
			log.Errorf("[Upgrade] failed to mark order %d gateway_failed: %v", order.ID, uerr)
		}
		o.releaseLock(orgID)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if _, err := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
		models.OrderStatusCreated, models.OrderStatusCheckoutOpen,
		map[string]interface{}{"gateway_order_id": gwOrder.ID}); err != nil {
		o.releaseLock(orgID)
		return nil, fmt.Errorf("open checkout: %w", err)
	}

	return &CheckoutSession{
		OrderID:        order.ID,
		GatewayOrderID: gwOrder.ID,
		GatewayKeyID:   o.gateway.KeyID(),
		AmountCents:    gwOrder.AmountCents,
		Currency:       gwOrder.Currency,
		PlanSlug:       target.Slug,
		BillingPeriod:  period,
	}, nil
}

// ConfirmPayment handles the authorized-checkout callback: verify the
// signature against the order, then apply the plan under the CAS guard.
// Idempotent per order: re-delivery of an applied order's confirmation is a
// no-op success.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, cb Callback) (State, error) {
	order, err := o.repos.PaymentOrder.GetByGatewayOrderID(cb.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StateIdle, fmt.Errorf("unknown gateway order %q", cb.GatewayOrderID)
		}
		return StateIdle, err
	}

	switch order.Status {
	case models.OrderStatusApplied:
		// Duplicate webhook/callback delivery.
		return StateApplied, nil
	case models.OrderStatusVerified:
		// A prior confirmation verified but did not finish applying
		// (crash or scheduled retry); push the apply step forward.
		return o.applyVerified(order)
	case models.OrderStatusCheckoutOpen:
		// The normal path, handled below.
	default:
		if order.IsTerminal() {
			return StateForOrder(order), ErrOrderClosed
		}
		return StateForOrder(order), fmt.Errorf("order %d is not awaiting confirmation (status %s)", order.ID, order.Status)
	}

	if !gateway.VerifyPaymentSignature(order.GatewayOrderID, cb.PaymentID, cb.Signature, o.secret) {
		log.Errorf("[Upgrade] VERIFICATION FAILED for order %d (org %d, payment %q): flag for manual reconciliation, payer may have been charged",
			order.ID, order.OrganizationID, cb.PaymentID)
		advanced, uerr := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
			models.OrderStatusCheckoutOpen, models.OrderStatusVerificationFailed,
			map[string]interface{}{
				"payment_id":     cb.PaymentID,
				"failure_reason": "signature mismatch",
			})
		if uerr != nil {
			log.Errorf("[Upgrade] failed to mark order %d verification_failed: %v", order.ID, uerr)
		}
		// Only the write that actually closed the order owns the lock release;
		// a concurrently closed order released it already.
		if advanced {
			o.releaseLock(order.OrganizationID)
		}
		return StateVerificationFailed, ErrVerificationFailed
	}

	advanced, err := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
		models.OrderStatusCheckoutOpen, models.OrderStatusVerified,
		map[string]interface{}{"payment_id": cb.PaymentID})
	if err != nil {
		return StateVerifying, err
	}
	if !advanced {
		// Lost a race with a concurrent delivery of the same callback;
		// re-read and settle on whatever that delivery decided.
		fresh, ferr := o.repos.PaymentOrder.GetByID(order.ID)
		if ferr != nil {
			return StateVerifying, ferr
		}
		if fresh.Status == models.OrderStatusApplied {
			return StateApplied, nil
		}
		if fresh.Status == models.OrderStatusVerified {
			return o.applyVerified(fresh)
		}
		return StateForOrder(fresh), ErrOrderClosed
	}

	order.Status = models.OrderStatusVerified
	order.PaymentID = cb.PaymentID
	return o.applyVerified(order)
}

// applyVerified runs the apply step for a verified order. Verification is
// never repeated here: by this point money has moved and the only open
// question is the entitlement.
func (o *Orchestrator) applyVerified(order *models.PaymentOrder) (State, error) {
	err := o.applier.Apply(order.OrganizationID, order.PlanID, order.PrevPlanID)
	if err == nil {
		if _, uerr := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
			models.OrderStatusVerified, models.OrderStatusApplied, nil); uerr != nil {
			log.Errorf("[Upgrade] order %d applied but status write failed: %v", order.ID, uerr)
		}
		o.releaseLock(order.OrganizationID)
		log.Infof("[Upgrade] org %d moved to plan %d (order %d)", order.OrganizationID, order.PlanID, order.ID)
		return StateApplied, nil
	}

	if errors.Is(err, ErrApplyConflict) {
		log.Errorf("[Upgrade] APPLY FAILED for order %d (org %d): plan changed since order creation; payment %q is confirmed but no entitlement was granted",
			order.ID, order.OrganizationID, order.PaymentID)
		if _, uerr := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
			models.OrderStatusVerified, models.OrderStatusApplyFailed,
			map[string]interface{}{"failure_reason": "plan changed since order creation"}); uerr != nil {
			log.Errorf("[Upgrade] failed to mark order %d apply_failed: %v", order.ID, uerr)
		}
		o.releaseLock(order.OrganizationID)
		return StateApplyFailed, ErrApplyConflict
	}

	// Transient storage trouble after a verified payment: retry the apply
	// step alone in the background, keeping the order verified.
	log.Errorf("[Upgrade] transient apply error for order %d (org %d): %v", order.ID, order.OrganizationID, err)
	if o.enqueueRetry != nil {
		if qerr := o.enqueueRetry(order.ID); qerr == nil {
			return StateApplying, nil
		}
		log.Errorf("[Upgrade] failed to enqueue apply retry for order %d", order.ID)
	}
	return StateApplying, err
}

// RetryApply is called by the background queue for a verified order whose
// apply step failed transiently.
func (o *Orchestrator) RetryApply(orderID uint) error {
	order, err := o.repos.PaymentOrder.GetByID(orderID)
	if err != nil {
		return err
	}
	switch order.Status {
	case models.OrderStatusApplied:
		return nil
	case models.OrderStatusVerified:
		_, err := o.applyVerified(order)
		return err
	default:
		return fmt.Errorf("order %d is not retryable (status %s)", order.ID, order.Status)
	}
}

// FailCheckout records a gateway-declined checkout with the gateway's
// stated reason. Retryable by starting a brand-new attempt.
func (o *Orchestrator) FailCheckout(gatewayOrderID, reason string) (State, error) {
	return o.closeCheckout(gatewayOrderID, models.OrderStatusGatewayFailed,
		map[string]interface{}{"failure_reason": reason}, StateGatewayFailed)
}

// DismissCheckout records a user-cancelled checkout. This is not an error:
// the lock is released immediately and a fresh attempt (with a fresh order)
// may start right away.
func (o *Orchestrator) DismissCheckout(gatewayOrderID string) (State, error) {
	return o.closeCheckout(gatewayOrderID, models.OrderStatusUserDismissed, nil, StateUserDismissed)
}

func (o *Orchestrator) closeCheckout(gatewayOrderID, toStatus string, updates map[string]interface{}, closed State) (State, error) {
	order, err := o.repos.PaymentOrder.GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		return StateIdle, err
	}
	if order.Status == models.OrderStatusApplied {
		return StateApplied, nil
	}
	advanced, err := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
		models.OrderStatusCheckoutOpen, toStatus, updates)
	if err != nil {
		return StateCheckoutOpen, err
	}
	if !advanced {
		// The order already went terminal and released the lock back then.
		// Releasing again here would free the lock of a newer checkout the
		// organization may have opened since.
		fresh, ferr := o.repos.PaymentOrder.GetByID(order.ID)
		if ferr != nil {
			return StateIdle, ferr
		}
		return StateForOrder(fresh), ErrOrderClosed
	}
	o.releaseLock(order.OrganizationID)
	return closed, nil
}

// RequestDowngrade produces the manual-contact artifact for a downgrade. No
// payment order is ever created on this path.
func (o *Orchestrator) RequestDowngrade(ctx context.Context, orgID, planID uint) (*ContactTicket, error) {
	org, err := o.repos.Organization.GetWithPlan(orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	target, err := o.repos.Plan.GetByID(planID)
	if err != nil {
		return nil, fmt.Errorf("load target plan: %w", err)
	}

	if tier.Compare(org.Plan, target, models.BillingPeriodMonthly) != tier.Downgrade &&
		tier.Compare(org.Plan, target, models.BillingPeriodYearly) != tier.Downgrade {
		return nil, ErrNotActionable
	}

	ticket := BuildContactTicket(org, org.Plan, target, o.supportAddress)

	req := &models.PlanChangeRequest{
		OrganizationID:  org.ID,
		CurrentPlanID:   org.PlanID,
		RequestedPlanID: target.ID,
		Message:         ticket.Body,
		Status:          models.ChangeRequestStatusOpen,
	}
	if err := o.repos.PlanChangeRequest.Create(req); err != nil {
		// Artifact generation failure is non-fatal and re-presentable.
		log.Warnf("[Upgrade] failed to persist downgrade request for org %d: %v", org.ID, err)
	}

	if o.sendMail != nil && ticket.To != "" {
		if err := o.sendMail(ticket.To, ticket.Subject, ticket.Body); err != nil {
			log.Warnf("[Upgrade] failed to mail downgrade ticket for org %d: %v", org.ID, err)
		}
	}

	return ticket, nil
}

// ExpireStaleOrders closes checkouts that outlived the lock TTL so stale
// callbacks cannot resurrect them. Verified orders are never expired here —
// money has moved — they are only surfaced for reconciliation.
func (o *Orchestrator) ExpireStaleOrders(maxAgeMinutes int) {
	orders, err := o.repos.PaymentOrder.ListOpenOlderThan(maxAgeMinutes)
	if err != nil {
		log.Errorf("[Upgrade] expiry sweep failed: %v", err)
		return
	}
	for i := range orders {
		order := &orders[i]
		if order.Status == models.OrderStatusVerified {
			log.Errorf("[Upgrade] order %d has been verified-but-unapplied for over %d minutes; needs manual reconciliation",
				order.ID, maxAgeMinutes)
			continue
		}
		advanced, err := o.repos.PaymentOrder.UpdateStatusIf(order.ID,
			order.Status, models.OrderStatusExpired,
			map[string]interface{}{"failure_reason": "checkout expired"})
		if err != nil {
			log.Errorf("[Upgrade] failed to expire order %d: %v", order.ID, err)
			continue
		}
		if advanced {
			o.releaseLock(order.OrganizationID)
			log.Infof("[Upgrade] expired stale order %d (org %d)", order.ID, order.OrganizationID)
		}
	}
}

func (o *Orchestrator) releaseLock(orgID uint) {
	if err := o.locks.Release(orgID); err != nil {
		log.Warnf("[Upgrade] failed to release checkout lock for org %d: %v", orgID, err)
	}
}
