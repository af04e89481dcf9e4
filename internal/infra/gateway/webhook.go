package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"sitepilot/internal/domain"
)

// VerifyWebhookSignature checks the gateway's HMAC-SHA256 hex signature over
// the exact raw request body bytes. The body must never be re-serialized
// before signing; whitespace or key-order changes would break verification.
// Returns domain.ErrSignatureMismatch on any failure, including a missing
// secret or signature, so the check fails closed.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return domain.ErrSignatureMismatch
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(rawBody)
	expected := hex.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}
