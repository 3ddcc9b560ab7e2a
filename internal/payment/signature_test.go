package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedKnownVector(t *testing.T) {
	v := NewVerifier("testsecret")
	// hex(HMAC-SHA256("testsecret", "order_ABC|pay_XYZ"))
	const want = "93f5a785992a41d68e10e2e08c1c7ca5692e58e24bdedbc5f0616c97fc4438aa"
	assert.Equal(t, want, v.Expected("order_ABC", "pay_XYZ"))
}

func TestExpectedDeterministic(t *testing.T) {
	v := NewVerifier("shared-secret")
	first := v.Expected("order_1", "pay_1")
	require.Len(t, first, 64)
	assert.Equal(t, strings.ToLower(first), first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, v.Expected("order_1", "pay_1"))
	}
}

func TestVerifyExactMatchOnly(t *testing.T) {
	v := NewVerifier("shared-secret")
	sig := v.Expected("order_1", "pay_1")
	require.True(t, v.Verify("order_1", "pay_1", sig))

	// Any single character mutation must be rejected.
	for i := range sig {
		mutated := []byte(sig)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		assert.False(t, v.Verify("order_1", "pay_1", string(mutated)), "mutation at index %d accepted", i)
	}

	assert.False(t, v.Verify("order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, v.Verify("order_1", "pay_1", sig[:63]))
	assert.False(t, v.Verify("order_2", "pay_1", sig))
	assert.False(t, v.Verify("order_1", "pay_2", sig))
}

func TestVerifyEmptyInputs(t *testing.T) {
	v := NewVerifier("shared-secret")
	sig := v.Expected("order_1", "pay_1")
	assert.False(t, v.Verify("", "pay_1", sig))
	assert.False(t, v.Verify("order_1", "", sig))
	assert.False(t, v.Verify("order_1", "pay_1", ""))
	assert.False(t, NewVerifier("").Verify("order_1", "pay_1", sig))
}

func TestVerifierTrimsSecret(t *testing.T) {
	clean := NewVerifier("shared-secret")
	padded := NewVerifier("  shared-secret\n")
	sig := clean.Expected("order_1", "pay_1")
	assert.True(t, padded.Verify("order_1", "pay_1", sig))
}

func TestVerifyTrimsSignature(t *testing.T) {
	v := NewVerifier("shared-secret")
	sig := v.Expected("order_1", "pay_1")
	assert.True(t, v.Verify("order_1", "pay_1", " "+sig+"\n"))
}
