// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for decisions, challenges, trust baseline, and the outbox.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address holding OTP secrets and attempt counters (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the Redis password; empty for unauthenticated Redis.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database number.
	RedisDB int `mapstructure:"REDIS_DB"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; signs access tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; verifies access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "stepup-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "stepup-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// RiskHighAmountThreshold is the decimal amount at or above which the HIGH_AMOUNT signal fires.
	RiskHighAmountThreshold string `mapstructure:"RISK_HIGH_AMOUNT_THRESHOLD"`
	// RiskStepUpScoreThreshold is the score at or above which step-up is required (and level is HIGH).
	RiskStepUpScoreThreshold int `mapstructure:"RISK_STEP_UP_SCORE_THRESHOLD"`
	// RiskNewDeviceScore is the weight added when the device hash is not in the trust baseline.
	RiskNewDeviceScore int `mapstructure:"RISK_NEW_DEVICE_SCORE"`
	// RiskNewCountryScore is the weight added when the country differs from the trusted one.
	RiskNewCountryScore int `mapstructure:"RISK_NEW_COUNTRY_SCORE"`
	// RiskHighAmountScore is the weight added when the amount crosses the high-amount threshold.
	RiskHighAmountScore int `mapstructure:"RISK_HIGH_AMOUNT_SCORE"`

	// OTPTTL is the OTP lifetime in Redis (e.g. "5m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts is the hard cap on verify attempts per challenge.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// OTPDevPreview when true returns the raw OTP in the authorize response; for local development
	// without an SMS/email channel. Must not be true when Env is production (Load fails).
	OTPDevPreview bool `mapstructure:"OTP_DEV_PREVIEW"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// MonitoringKafkaTopic is the topic monitoring events are published to.
	MonitoringKafkaTopic string `mapstructure:"MONITORING_KAFKA_TOPIC"`

	// OutboxEnabled toggles the in-process outbox publisher; cmd/worker ignores it.
	OutboxEnabled bool `mapstructure:"OUTBOX_ENABLED"`
	// OutboxBatchSize is the max number of due events selected per publish cycle.
	OutboxBatchSize int `mapstructure:"OUTBOX_BATCH_SIZE"`
	// OutboxPublishInterval is the delay between publish cycles (e.g. "2s").
	OutboxPublishInterval string `mapstructure:"OUTBOX_PUBLISH_INTERVAL"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap log level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces (e.g. http://localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ISSUER", "stepup-auth")
	v.SetDefault("JWT_AUDIENCE", "stepup-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RISK_HIGH_AMOUNT_THRESHOLD", "1000")
	v.SetDefault("RISK_STEP_UP_SCORE_THRESHOLD", 70)
	v.SetDefault("RISK_NEW_DEVICE_SCORE", 50)
	v.SetDefault("RISK_NEW_COUNTRY_SCORE", 30)
	v.SetDefault("RISK_HIGH_AMOUNT_SCORE", 60)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_DEV_PREVIEW", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("MONITORING_KAFKA_TOPIC", "stepup.monitoring")
	v.SetDefault("OUTBOX_ENABLED", true)
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)
	v.SetDefault("OUTBOX_PUBLISH_INTERVAL", "2s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.OTPDevPreview && cfg.Env == "production" {
		return nil, errors.New("config: OTP_DEV_PREVIEW must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.OTPMaxAttempts < 1 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.OutboxBatchSize < 1 {
		return nil, errors.New("config: OUTBOX_BATCH_SIZE must be at least 1")
	}

	if _, err := decimal.NewFromString(cfg.RiskHighAmountThreshold); err != nil {
		return nil, errors.New("config: RISK_HIGH_AMOUNT_THRESHOLD must be a decimal number")
	}
	if cfg.RiskStepUpScoreThreshold < 1 {
		return nil, errors.New("config: RISK_STEP_UP_SCORE_THRESHOLD must be at least 1")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// OTPLifetime parses OTPTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) OTPLifetime() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// PublishInterval parses OutboxPublishInterval as a time.Duration. Returns 2s if unset or invalid.
func (c *Config) PublishInterval() time.Duration {
	d, err := time.ParseDuration(c.OutboxPublishInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// HighAmountThreshold parses RiskHighAmountThreshold as a decimal. Load validates the format,
// so this returns zero only for a zero-value Config.
func (c *Config) HighAmountThreshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.RiskHighAmountThreshold)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// KafkaBrokersList splits KafkaBrokers on commas, trimming whitespace and dropping empty entries.
func (c *Config) KafkaBrokersList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
