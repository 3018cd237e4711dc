package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Practice details
	PracticeTimezone  string
	PractitionerName  string
	PractitionerEmail string

	// Page sessions
	SessionStore string
	SessionTTL   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email delivery
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	EmailFromName     string
	SESFromEmail      string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BookingQueueURL     string
	EbookBucket         string
	EbookKey            string
	EbookLinkTTL        time.Duration

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		PracticeTimezone:  getEnv("PRACTICE_TIMEZONE", "Africa/Casablanca"),
		PractitionerName:  getEnv("PRACTITIONER_NAME", "Laila Gmaihi"),
		PractitionerEmail: getEnv("PRACTITIONER_EMAIL", "contact@lailagmaihi.com"),

		SessionStore: strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:   getEnvAsDuration("SESSION_TTL", 2*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Laila Gmaihi Therapy"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BookingQueueURL:     getEnv("BOOKING_QUEUE_URL", ""),
		EbookBucket:         getEnv("EBOOK_BUCKET", ""),
		EbookKey:            getEnv("EBOOK_KEY", "ebooks/10-steps-to-emotional-balance.pdf"),
		EbookLinkTTL:        getEnvAsDuration("EBOOK_LINK_TTL", 72*time.Hour),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// UsesAWS reports whether any AWS-backed collaborator is configured.
func (c *Config) UsesAWS() bool {
	return c.EmailProvider == "ses" || c.BookingQueueURL != "" || c.EbookBucket != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
