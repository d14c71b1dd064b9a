package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Payout   PayoutConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// PaystackConfig carries the gateway credentials. SecretKey signs webhook
// bodies (HMAC-SHA512) and authorizes verify calls; PublicKey is returned to
// the frontend for checkout.
type PaystackConfig struct {
	SecretKey   string
	PublicKey   string
	BaseURL     string
	CallbackURL string
}

// PayoutConfig holds the fixed writer payout ratio. A writer bid of X is
// shown to the client as round(X / WriterPercentage, 2).
type PayoutConfig struct {
	WriterPercentage float64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "scripta:scripta@tcp(localhost:3306)/scripta?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "scripta",
		},
		Paystack: PaystackConfig{
			SecretKey:   getenv("PAYSTACK_SECRET_KEY", ""),
			PublicKey:   getenv("PAYSTACK_PUBLIC_KEY", ""),
			BaseURL:     getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: getenv("PAYSTACK_CALLBACK_URL", ""),
		},
		Payout: PayoutConfig{
			WriterPercentage: getenvFloat("WRITER_PAYOUT_PERCENTAGE", 0.30),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
