package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv      string
	Port         string
	AppURL       string
	JWTSecret    string
	AESSecretKey string
	Database     DatabaseConfig
	Mailer       MailerConfig
	Moderation   ModerationConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// MailerConfig holds MailerSend configuration
type MailerConfig struct {
	APIKey           string
	FromEmail        string
	FromName         string
	SupportEmail     string
	VerifyTemplateID string
	ForgotTemplateID string
}

// ModerationConfig holds optional Gemini moderation configuration
type ModerationConfig struct {
	GeminiAPIKey string
	Model        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	aesSecret := os.Getenv("AES_SECRET_KEY")
	if aesSecret == "" {
		return nil, fmt.Errorf("AES_SECRET_KEY is required")
	}

	return &Config{
		NodeEnv:      getEnv("NODE_ENV", "development"),
		Port:         getEnv("PORT", "3000"),
		AppURL:       getEnv("APP_URL", "http://localhost:3000"),
		JWTSecret:    jwtSecret,
		AESSecretKey: aesSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "maskoff"),
		},
		Mailer: MailerConfig{
			APIKey:           os.Getenv("MAILER_SEND_API"),
			FromEmail:        getEnv("EMAIL_FROM", "info@maskoff.app"),
			FromName:         getEnv("EMAIL_FROM_NAME", "MaskOFF"),
			SupportEmail:     getEnv("SUPPORT_EMAIL", "support@maskoff.app"),
			VerifyTemplateID: os.Getenv("VERIFY_TEMPLATE_ID"),
			ForgotTemplateID: os.Getenv("FORGOT_TEMPLATE_ID"),
		},
		Moderation: ModerationConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
