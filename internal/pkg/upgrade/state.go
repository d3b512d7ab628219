package upgrade

import "github.com/MarcelWeber/TeamPilot/app/models"

// State is the explicit machine an upgrade attempt moves through. The UI
// renders the current tag and never derives transitions from flags of its
// own. Persisted PaymentOrder statuses are a projection of these states;
// Verifying and Applying exist only while ConfirmPayment is running.
type State string

const (
	StateIdle               State = "idle"
	StateOrderCreated       State = "order_created"
	StateCheckoutOpen       State = "checkout_open"
	// StateAuthorized names the instant the gateway reports a payment as
	// authorized, before its signature is checked. ConfirmPayment moves
	// straight to Verifying, which subsumes it; the tag is kept so clients
	// reading gateway webhooks have a name for that phase.
	StateAuthorized         State = "authorized"
	StateGatewayFailed      State = "gateway_failed"
	StateUserDismissed      State = "user_dismissed"
	StateVerifying          State = "verifying"
	StateVerified           State = "verified"
	StateVerificationFailed State = "verification_failed"
	StateApplying           State = "applying"
	StateApplied            State = "applied"
	StateApplyFailed        State = "apply_failed"
	StateExpired            State = "expired"
)

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	switch s {
	case StateGatewayFailed, StateUserDismissed, StateVerificationFailed,
		StateApplied, StateApplyFailed, StateExpired:
		return true
	default:
		return false
	}
}

// StateForOrder maps a persisted order status onto the state machine.
func StateForOrder(order *models.PaymentOrder) State {
	switch order.Status {
	case models.OrderStatusCreated:
		return StateOrderCreated
	case models.OrderStatusCheckoutOpen:
		return StateCheckoutOpen
	case models.OrderStatusGatewayFailed:
		return StateGatewayFailed
	case models.OrderStatusUserDismissed:
		return StateUserDismissed
	case models.OrderStatusVerified:
		return StateVerified
	case models.OrderStatusVerificationFailed:
		return StateVerificationFailed
	case models.OrderStatusApplied:
		return StateApplied
	case models.OrderStatusApplyFailed:
		return StateApplyFailed
	case models.OrderStatusExpired:
		return StateExpired
	default:
		return StateIdle
	}
}
