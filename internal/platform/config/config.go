package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr        string
	DatabaseURL string

	Redis RedisConfig

	Captcha CaptchaConfig
	Verify  VerifyConfig

	// RequireHandle makes a missing social handle a validation error instead
	// of skipping verification.
	RequireHandle bool

	// RegistrationRateLimit bounds POST /api/users per client IP.
	RegistrationRateLimit  int
	RegistrationRateWindow time.Duration

	Kafka KafkaConfig
}

// RedisConfig configures the optional shared verdict cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	VerdictTTL   time.Duration
}

// CaptchaConfig points at the human-proof verification service.
type CaptchaConfig struct {
	VerifyURL string
	Secret    string
	Timeout   time.Duration
}

// VerifyConfig configures the handle verification chain. Provider URLs are
// templates with %s substituted by the normalized handle; an empty URL
// disables that provider.
type VerifyConfig struct {
	PrimaryURL    string
	SecondaryURL  string
	MirrorURL     string
	LookupTimeout time.Duration
	StrategyDelay time.Duration
}

// KafkaConfig configures the optional admission audit publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	return Config{
		Addr:        envOr("PINMAP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			VerdictTTL:   envDuration("VERDICT_CACHE_TTL", 24*time.Hour),
		},
		Captcha: CaptchaConfig{
			VerifyURL: envOr("CAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			Secret:    os.Getenv("CAPTCHA_SECRET"),
			Timeout:   envDuration("CAPTCHA_TIMEOUT", 10*time.Second),
		},
		Verify: VerifyConfig{
			PrimaryURL:    os.Getenv("HANDLE_PRIMARY_URL"),
			SecondaryURL:  os.Getenv("HANDLE_SECONDARY_URL"),
			MirrorURL:     os.Getenv("HANDLE_MIRROR_URL"),
			LookupTimeout: envDuration("HANDLE_LOOKUP_TIMEOUT", 8*time.Second),
			StrategyDelay: envDuration("HANDLE_STRATEGY_DELAY", 200*time.Millisecond),
		},
		RequireHandle:          os.Getenv("REQUIRE_HANDLE") == "true",
		RegistrationRateLimit:  envInt("REGISTRATION_RATE_LIMIT", 5),
		RegistrationRateWindow: envDuration("REGISTRATION_RATE_WINDOW", time.Minute),
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "pinmap.registrations"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
