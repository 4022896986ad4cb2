package config

import (
	"os"
	"strconv"
	"time"

	"tickethub/internal/payment"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment provider configuration
	Payment payment.ClientConfig

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string

	// Checkout configuration
	CheckoutRatePerMinute int64
	SessionTTL            time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Payment provider
		Payment: payment.ClientConfig{
			BaseURL:       getEnv("PAYMENT_BASE_URL", "http://localhost:9000"),
			MerchantID:    getEnv("PAYMENT_MERCHANT_ID", ""),
			APIKey:        getEnv("PAYMENT_API_KEY", ""),
			HMACKey:       getEnv("PAYMENT_HMAC_KEY", ""),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),

		// Checkout
		CheckoutRatePerMinute: int64(getEnvAsInt("CHECKOUT_RATE_PER_MINUTE", 10)),
		SessionTTL:            getEnvAsDuration("CHECKOUT_SESSION_TTL", "30m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
