package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	SignaturePrefix = "sha256="
	SignatureHeader = "X-Hub-Signature-256"
)

// Sign returns the GitHub X-Hub-Signature-256 value for payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies the HMAC-SHA256 signature from a GitHub webhook.
// Missing, malformed or mismatched signatures all simply return false, as
// does an empty secret.
func VerifySignature(secret, payload []byte, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}

	expected := Sign(secret, payload)

	// Constant-time comparison to prevent timing attacks
	return hmac.Equal([]byte(expected), []byte(signature))
}
