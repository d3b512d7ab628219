package upgrade

import "errors"

var (
	// ErrNotActionable: target equals the current plan or the pair has no
	// resolvable tier order; no self-service switch is offered.
	ErrNotActionable = errors.New("plan change is not actionable")

	// ErrDowngradeRequiresContact: the target ranks below the current plan;
	// downgrades go through the manual-contact path, never checkout.
	ErrDowngradeRequiresContact = errors.New("downgrades require manual contact")

	// ErrContactSales: the target has no strictly positive price for the
	// requested billing period.
	ErrContactSales = errors.New("plan has no self-service price for this period")

	// ErrCheckoutInProgress: another checkout is open for the organization.
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this organization")

	// ErrGatewayUnavailable: transient failure minting the gateway order.
	ErrGatewayUnavailable = errors.New("payment gateway order creation failed")

	// ErrOrderClosed: a callback arrived for an order already terminal in a
	// non-applied state.
	ErrOrderClosed = errors.New("payment order is already closed")

	// ErrVerificationFailed: the payment confirmation did not match the
	// order; flagged for manual reconciliation since the payer may have
	// been charged.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrApplyConflict: the organization's plan changed between order
	// creation and apply; money moved but the entitlement was not granted.
	ErrApplyConflict = errors.New("plan assignment conflict")
)
