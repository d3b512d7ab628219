package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyPaymentSignature checks a checkout confirmation against the order it
// claims to settle. The gateway signs "orderId|paymentId" with HMAC-SHA256
// over the shared secret and sends the hex digest alongside the payment id.
// Any mismatch (wrong order id, tampered fields, bad signature) fails closed.
func VerifyPaymentSignature(gatewayOrderID, paymentID, signatureHex, secret string) bool {
	sig := strings.TrimSpace(signatureHex)
	if gatewayOrderID == "" || paymentID == "" || sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// SignPayment computes the hex signature the gateway would produce for a
// given order/payment pair. Used by tests and the local fake gateway.
func SignPayment(gatewayOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
