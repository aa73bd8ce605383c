package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the checkout callback signature: hex HMAC-SHA256 of
// "gatewayOrderID|gatewayPaymentID" under the key secret. This is the
// recipe the gateway documents for verifying browser callbacks.
func Sign(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares in
// constant time. A mismatch means the callback was forged or corrupted.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := Sign(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
