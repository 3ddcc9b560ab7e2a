package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verifier confirms that a claimed (order, payment) pair was produced by the
// gateway. Pure and deterministic: no external calls, no state.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier from the shared gateway secret. The secret is
// trimmed of surrounding whitespace; deployment environments are prone to
// trailing-whitespace injection in secret values.
func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(strings.TrimSpace(secret))}
}

// Expected computes hex(HMAC-SHA256(secret, orderID + "|" + paymentID)) in
// lowercase. The concatenation order and delimiter must match the gateway's
// own construction exactly.
func (v Verifier) Expected(orderID, paymentID string) string {
	if len(v.secret) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the provided signature matches the expected digest.
// Malformed or empty inputs are simply not verified, never an error. The
// comparison is constant time and exact; no case folding, no partial match.
func (v Verifier) Verify(orderID, paymentID, signature string) bool {
	provided := strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || provided == "" {
		return false
	}
	expected := v.Expected(orderID, paymentID)
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(provided))
}
