package gateway

import "testing"

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test-secret"
	sig := SignPayment("order_123", "pay_456", secret)

	if !VerifyPaymentSignature("order_123", "pay_456", sig, secret) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyPaymentSignatureRejectsTampering(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
	}{
		{"signature for a different order", "order_123", "pay_456", SignPayment("order_999", "pay_456", secret)},
		{"signature for a different payment", "order_123", "pay_456", SignPayment("order_123", "pay_999", secret)},
		{"signature with a different secret", "order_123", "pay_456", SignPayment("order_123", "pay_456", "other-secret")},
		{"garbage signature", "order_123", "pay_456", "not-hex!!"},
		{"empty signature", "order_123", "pay_456", ""},
		{"empty order id", "", "pay_456", SignPayment("order_123", "pay_456", secret)},
	}

	for _, tt := range tests {
		if VerifyPaymentSignature(tt.orderID, tt.paymentID, tt.signature, secret) {
			t.Fatalf("%s: expected verification to fail", tt.name)
		}
	}
}

func TestVerifyPaymentSignatureAcceptsUppercaseHex(t *testing.T) {
	secret := "test-secret"
	sig := SignPayment("order_123", "pay_456", secret)

	upper := ""
	for _, r := range sig {
		if r >= 'a' && r <= 'f' {
			r = r - 'a' + 'A'
		}
		upper += string(r)
	}

	if !VerifyPaymentSignature("order_123", "pay_456", upper, secret) {
		t.Fatal("expected uppercase hex signature to verify")
	}
}
