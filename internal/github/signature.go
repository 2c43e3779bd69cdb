package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Webhook headers sent by GitHub with every delivery.
const (
	SignatureHeader = "X-Hub-Signature-256"
	EventHeader     = "X-GitHub-Event"
	DeliveryHeader  = "X-GitHub-Delivery"
)

// Event types this service cares about. Anything else is acknowledged and dropped.
const (
	EventPing = "ping"
	EventPush = "push"
)

// VerifySignature checks a GitHub webhook signature against the shared secret.
// The signature header carries "sha256=<hex hmac>" computed over the raw request
// body. Comparison is constant-time to prevent timing attacks.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature header value for a body. Used by tests and by
// operators replaying deliveries with curl.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
