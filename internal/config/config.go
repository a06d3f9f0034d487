package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

type Config struct {
	DatabaseURL        string
	RedisURL           string
	KafkaBrokers       string
	KafkaTopic         string
	NatsURL            string
	JaegerEndpoint     string
	CORSAllowedOrigins []string
	Port               string

	Gateway          GatewayConfig
	PaymentMethods   []models.PaymentMethod
	PendingTTL       time.Duration
	LockTTL          time.Duration
	BatchConcurrency int
	NATSConcurrency  int
}

// GatewayConfig describes the POS backend and the store credentials used
// against it. Empty credentials are allowed here and rejected per call.
type GatewayConfig struct {
	Endpoint       string
	APIKey         string
	APISecret      string
	StoreID        int
	ConnectTimeout time.Duration
	Timeout        time.Duration
	RateLimit      float64
	Logging        LoggingConfig
}

type LoggingConfig struct {
	Enabled bool
	Channel string
}

const defaultEndpoint = "https://pos.vendweave.com/api"

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}

	kafkaTopic := os.Getenv("KAFKA_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "payment.verification.completed"
	}

	gateway := GatewayConfig{
		Endpoint:       NormalizeEndpoint(getenv("VENDWEAVE_ENDPOINT", defaultEndpoint)),
		APIKey:         os.Getenv("VENDWEAVE_API_KEY"),
		APISecret:      os.Getenv("VENDWEAVE_API_SECRET"),
		StoreID:        getInt("VENDWEAVE_STORE_ID", 0),
		ConnectTimeout: getDuration("VENDWEAVE_CONNECT_TIMEOUT", 10*time.Second),
		Timeout:        getDuration("VENDWEAVE_TIMEOUT", 30*time.Second),
		RateLimit:      getFloat("VENDWEAVE_RATE_LIMIT", 0),
		Logging: LoggingConfig{
			Enabled: getBool("VENDWEAVE_LOGGING_ENABLED", true),
			Channel: getenv("VENDWEAVE_LOGGING_CHANNEL", "stack"),
		},
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:         kafkaTopic,
		NatsURL:            os.Getenv("NATS_URL"),
		JaegerEndpoint:     os.Getenv("JAEGER_ENDPOINT"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Port:               port,
		Gateway:            gateway,

		PaymentMethods:   ParsePaymentMethods(os.Getenv("VENDWEAVE_PAYMENT_METHODS")),
		PendingTTL:       getDuration("VENDWEAVE_PENDING_TTL", 30*time.Minute),
		LockTTL:          getDuration("VENDWEAVE_LOCK_TTL", DefaultLockTTL(gateway)),
		BatchConcurrency: getInt("VENDWEAVE_BATCH_CONCURRENCY", 4),
		NATSConcurrency:  getInt("VENDWEAVE_NATS_CONCURRENCY", 8),
	}
}

// lockSlack covers the audit insert and event publish that run after the
// remote lookup while the order lock is still held.
const lockSlack = 30 * time.Second

// DefaultLockTTL outlives the slowest remote lookup the gateway allows.
func DefaultLockTTL(gw GatewayConfig) time.Duration {
	return gw.ConnectTimeout + gw.Timeout + lockSlack
}

// NormalizeEndpoint strips surrounding whitespace and trailing slashes.
func NormalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// ParsePaymentMethods turns a comma separated allow-list into known
// methods, skipping unknown names and duplicates. An empty list yields
// every supported method.
func ParsePaymentMethods(raw string) []models.PaymentMethod {
	var methods []models.PaymentMethod
	seen := make(map[models.PaymentMethod]bool)
	for _, name := range splitList(raw) {
		m, err := models.ParsePaymentMethod(name)
		if err != nil || seen[m] {
			continue
		}
		seen[m] = true
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		return append([]models.PaymentMethod(nil), models.AllPaymentMethods...)
	}
	return methods
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
