package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	BaseURL   string
	JWTSecret string
	UserID    string
	BranchID  string
	CompanyID string
}

func Load() *Config {
	// Missing .env is fine; environment variables take precedence anyway.
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8081"),
		BaseURL:   getEnv("ORDER_API_URL", "http://localhost:8081"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		UserID:    getEnv("USER_ID", ""),
		BranchID:  getEnv("BRANCH_ID", ""),
		CompanyID: getEnv("COMPANY_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
