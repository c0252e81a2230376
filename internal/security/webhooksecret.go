package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// WebhookSecret derives the secret of one workflow webhook from the
// gateway key. The result is 64 hex characters, within the charset and
// length Telegram accepts for secret_token.
func WebhookSecret(key, workflowID, webhook string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(workflowID))
	mac.Write([]byte{0})
	mac.Write([]byte(webhook))
	return hex.EncodeToString(mac.Sum(nil))
}

// SecretEqual compares two secrets in constant time.
func SecretEqual(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
