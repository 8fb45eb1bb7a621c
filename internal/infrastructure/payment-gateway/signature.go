package paymentgateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

const SignatureHeader = "X-Paystack-Signature"

// ComputeSignature returns the hex encoded HMAC-SHA512 of body keyed by secret.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
