package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the carehome-insights service.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// CQC API configuration
	CQCBaseURL     string
	CQCPartnerCode string
	CQCCacheTTL    time.Duration

	// Companies House API configuration
	CompaniesBaseURL string
	CompaniesAPIKey  string

	// Postcode lookup configuration
	PostcodesBaseURL string
	PostcodeCacheTTL time.Duration

	// Refresher configuration
	RefreshInterval   time.Duration
	RefreshStaleAfter time.Duration
	RefreshBatchSize  int

	// RabbitMQ configuration. Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string

	// Rate limiting
	RateLimitPerMinute int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "carehomes"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// CQC defaults
		CQCBaseURL:     getEnv("CQC_BASE_URL", "https://api.service.cqc.org.uk/public/v1"),
		CQCPartnerCode: getEnv("CQC_PARTNER_CODE", ""),
		CQCCacheTTL:    getDurationEnv("CQC_CACHE_TTL", 24*time.Hour),

		// Companies House defaults
		CompaniesBaseURL: getEnv("COMPANIES_BASE_URL", "https://api.company-information.service.gov.uk"),
		CompaniesAPIKey:  getEnv("COMPANIES_API_KEY", ""),

		// Postcode lookup defaults
		PostcodesBaseURL: getEnv("POSTCODES_BASE_URL", "https://api.postcodes.io"),
		PostcodeCacheTTL: getDurationEnv("POSTCODE_CACHE_TTL", 365*24*time.Hour),

		// Refresher defaults (hourly cycle, rescore anything older than a day)
		RefreshInterval:   getDurationEnv("REFRESH_INTERVAL", time.Hour),
		RefreshStaleAfter: getDurationEnv("REFRESH_STALE_AFTER", 24*time.Hour),
		RefreshBatchSize:  getIntEnv("REFRESH_BATCH_SIZE", 50),

		// RabbitMQ defaults
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "carehome-events"),

		// Rate limiting defaults
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
