package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	// BillDir is where generated PDFs and QR images land.
	BillDir string

	// Merchant identity baked into the UPI payment URI and the PDF header.
	MerchantVPA  string
	MerchantName string

	// SMTP transport. Empty address or password disables email entirely.
	EmailAddress  string
	EmailPassword string
	SMTPHost      string
	SMTPPort      int
	SMTPTimeout   time.Duration
}

// Load reads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:invoicer.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.BillDir = getEnv("BILL_DIR", "bills")
	cfg.MerchantVPA = getEnv("MERCHANT_VPA", "bindu62013928@ybl")
	cfg.MerchantName = getEnv("MERCHANT_NAME", "Anadi")
	cfg.EmailAddress = os.Getenv("EMAIL_ADDRESS")
	cfg.EmailPassword = os.Getenv("EMAIL_PASSWORD")
	cfg.SMTPHost = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 465)
	cfg.SMTPTimeout = time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 15)) * time.Second
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
