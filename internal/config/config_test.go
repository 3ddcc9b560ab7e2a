package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":     "rzp_test_key",
		"RAZORPAY_KEY_SECRET": "rzp_test_secret",
		"PORT":                "",
		"APP_ENV":             "",
		"GATEWAY_TIMEOUT":     "",
		"LOCK_TTL":            "",
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.HTTPAddr())
	assert.Equal(t, "https://api.razorpay.com", cfg.RazorpayBaseURL)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
}

func TestLoadRequiresKeyPair(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":     "",
		"RAZORPAY_KEY_SECRET": "rzp_test_secret",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_ID")

	_, err = LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":     "rzp_test_key",
		"RAZORPAY_KEY_SECRET": "",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_SECRET")
}

func TestLoadTrimsSecrets(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":     "  rzp_test_key\n",
		"RAZORPAY_KEY_SECRET": " rzp_test_secret ",
	})
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_key", cfg.RazorpayKeyID)
	assert.Equal(t, "rzp_test_secret", cfg.RazorpayKeySecret)
}

func TestLoadParsesLists(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":      "rzp_test_key",
		"RAZORPAY_KEY_SECRET":  "rzp_test_secret",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com ,",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"RAZORPAY_KEY_ID":     "rzp_test_key",
		"RAZORPAY_KEY_SECRET": "rzp_test_secret",
		"GATEWAY_TIMEOUT":     "soon",
	})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
}

func TestHTTPAddrKeepsLeadingColon(t *testing.T) {
	cfg := &Config{Port: ":8080"}
	assert.Equal(t, ":8080", cfg.HTTPAddr())
}
