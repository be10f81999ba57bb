// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PromoAPIBaseURL string
	PromoAPITimeout time.Duration
	PromoSiteURL    string

	// DatabaseURL is optional; the audit log is disabled without it.
	DatabaseURL string

	VerboseErrors      bool
	CookieSecure       bool
	CORSAllowedOrigins []string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AssetBucket        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	timeout, err := strconv.Atoi(getEnv("PROMO_API_TIMEOUT_SECONDS", "30"))
	if err != nil || timeout <= 0 {
		timeout = 30
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		PromoAPIBaseURL: getEnv("PROMO_API_BASE_URL", "http://localhost:8000/promo_api/v1"),
		PromoAPITimeout: time.Duration(timeout) * time.Second,
		PromoSiteURL:    getEnv("PROMO_SITE_URL", "http://localhost:3001"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		VerboseErrors:      getBool("VERBOSE_ERRORS", false),
		CookieSecure:       getBool("COOKIE_SECURE", false),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AssetBucket:        os.Getenv("ASSET_BUCKET_NAME"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
