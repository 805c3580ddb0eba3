package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration shared by the server, the worker and the admin CLI
type Config struct {
	Port     string
	AppURL   string
	Env      string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	FirebaseCredentialsPath string
	FirebaseAPIKey          string
	FirebaseAuthDomain      string
	FirebaseProjectID       string

	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePublishableKey string
	StripeCurrency       string

	SignupCredits        int64
	CreditConversionRate float64
	AdminEmails          []string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppURL: strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		Env:    getEnv("ENV", "development"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),
		FirebaseAuthDomain:      os.Getenv("FIREBASE_AUTH_DOMAIN"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeCurrency:       strings.ToLower(getEnv("STRIPE_CURRENCY", "inr")),

		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  os.Getenv("SMTP_PORT"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),
	}

	var err error
	cfg.SignupCredits, err = strconv.ParseInt(getEnv("SIGNUP_CREDITS", "10"), 10, 64)
	if err != nil || cfg.SignupCredits < 0 {
		return nil, fmt.Errorf("invalid SIGNUP_CREDITS %q", os.Getenv("SIGNUP_CREDITS"))
	}

	cfg.CreditConversionRate, err = strconv.ParseFloat(getEnv("CREDIT_CONVERSION_RATE", "0.69"), 64)
	if err != nil || cfg.CreditConversionRate <= 0 {
		return nil, fmt.Errorf("invalid CREDIT_CONVERSION_RATE %q", os.Getenv("CREDIT_CONVERSION_RATE"))
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS
func (c *Config) IsAdminEmail(email string) bool {
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
