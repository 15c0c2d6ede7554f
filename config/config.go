package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Referral ReferralConfig
	Shipping ShippingConfig
	Firebase FirebaseConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	// RateLimit is the sustained requests per second allowed per client.
	RateLimit       float64
	RateBurst       int
	PayoutRateLimit float64
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty Addr disables the shipping cache.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	ShippingTTL time.Duration
}

// JWTConfig holds the shared secret of the identity provider that issues
// session tokens.
type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

type PaystackConfig struct {
	BaseURL         string
	SecretKey       string
	TransferTimeout time.Duration
}

type ReferralConfig struct {
	CommissionRate   decimal.Decimal
	DefaultMinPayout domain.Kobo
}

// ShippingConfig holds the values used when the shipping configuration is
// created on first read.
type ShippingConfig struct {
	DefaultPrice          domain.Kobo
	DefaultDeliveryDays   int
	FreeShippingThreshold domain.Kobo
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8099"),
			Env:             getEnv("APP_ENV", "development"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:  getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimit:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateBurst:       getEnvAsInt("RATE_LIMIT_BURST", 40),
			PayoutRateLimit: getEnvAsFloat("PAYOUT_RATE_LIMIT_RPS", 0.2),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "root:@tcp(localhost:3306)/storefront?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			ShippingTTL: getEnvAsDuration("SHIPPING_CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getEnv("JWT_ISSUER", ""),
		},
		Paystack: PaystackConfig{
			BaseURL:         getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:       getEnv("PAYSTACK_SECRET_KEY", ""),
			TransferTimeout: getEnvAsDuration("PAYSTACK_TRANSFER_TIMEOUT", 20*time.Second),
		},
		Referral: ReferralConfig{
			CommissionRate:   getEnvAsDecimal("REFERRAL_COMMISSION_RATE", decimal.RequireFromString("0.05")),
			DefaultMinPayout: domain.Kobo(getEnvAsInt64("REFERRAL_MIN_PAYOUT_KOBO", int64(domain.DefaultMinPayout))),
		},
		Shipping: ShippingConfig{
			DefaultPrice:          domain.Kobo(getEnvAsInt64("SHIPPING_DEFAULT_PRICE_KOBO", 150000)),
			DefaultDeliveryDays:   getEnvAsInt("SHIPPING_DEFAULT_DELIVERY_DAYS", 5),
			FreeShippingThreshold: domain.Kobo(getEnvAsInt64("SHIPPING_FREE_THRESHOLD_KOBO", 5000000)),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// IsProduction reports whether the server runs with production settings.
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if val, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if val, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
