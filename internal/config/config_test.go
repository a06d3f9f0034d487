package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "KAFKA_TOPIC", "VENDWEAVE_ENDPOINT", "VENDWEAVE_API_KEY", "VENDWEAVE_STORE_ID",
		"VENDWEAVE_TIMEOUT", "VENDWEAVE_PAYMENT_METHODS", "VENDWEAVE_LOGGING_ENABLED",
		"VENDWEAVE_CONNECT_TIMEOUT", "VENDWEAVE_LOCK_TTL", "VENDWEAVE_NATS_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8084", cfg.Port)
	assert.Equal(t, "payment.verification.completed", cfg.KafkaTopic)
	assert.Equal(t, defaultEndpoint, cfg.Gateway.Endpoint)
	assert.Empty(t, cfg.Gateway.APIKey)
	assert.Zero(t, cfg.Gateway.StoreID)
	assert.Equal(t, 10*time.Second, cfg.Gateway.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.Gateway.Logging.Enabled)
	assert.Equal(t, "stack", cfg.Gateway.Logging.Channel)
	assert.Equal(t, models.AllPaymentMethods, cfg.PaymentMethods)
	assert.Equal(t, 70*time.Second, cfg.LockTTL)
	assert.Equal(t, 8, cfg.NATSConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VENDWEAVE_ENDPOINT", "https://sandbox.pos.vendweave.com/api/")
	t.Setenv("VENDWEAVE_API_KEY", "key")
	t.Setenv("VENDWEAVE_STORE_ID", "12")
	t.Setenv("VENDWEAVE_TIMEOUT", "5s")
	t.Setenv("VENDWEAVE_PAYMENT_METHODS", "BKASH, nagad")
	t.Setenv("VENDWEAVE_LOGGING_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "https://sandbox.pos.vendweave.com/api", cfg.Gateway.Endpoint)
	assert.Equal(t, "key", cfg.Gateway.APIKey)
	assert.Equal(t, 12, cfg.Gateway.StoreID)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, []models.PaymentMethod{models.MethodBkash, models.MethodNagad}, cfg.PaymentMethods)
	assert.False(t, cfg.Gateway.Logging.Enabled)
}

func TestLockTTLOutlivesRemoteLookup(t *testing.T) {
	t.Setenv("VENDWEAVE_CONNECT_TIMEOUT", "2s")
	t.Setenv("VENDWEAVE_TIMEOUT", "45s")
	t.Setenv("VENDWEAVE_LOCK_TTL", "")

	cfg := Load()

	assert.Equal(t, 77*time.Second, cfg.LockTTL)
	assert.Greater(t, cfg.LockTTL, cfg.Gateway.ConnectTimeout+cfg.Gateway.Timeout)

	t.Setenv("VENDWEAVE_LOCK_TTL", "2m")
	assert.Equal(t, 2*time.Minute, Load().LockTTL)
}

func TestParsePaymentMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []models.PaymentMethod
	}{
		{name: "empty", raw: "", want: models.AllPaymentMethods},
		{name: "subset", raw: "rocket,upay", want: []models.PaymentMethod{models.MethodRocket, models.MethodUpay}},
		{name: "unknown_skipped", raw: "paypal, Upay", want: []models.PaymentMethod{models.MethodUpay}},
		{name: "duplicates", raw: "bkash,BKASH", want: []models.PaymentMethod{models.MethodBkash}},
		{name: "only_unknown", raw: "paypal", want: models.AllPaymentMethods},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParsePaymentMethods(tt.raw))
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://pos.example.com/api", NormalizeEndpoint(" https://pos.example.com/api// "))
}
