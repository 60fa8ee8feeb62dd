package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Scheduling defaults
	DefaultTimezone    string
	BusinessHoursStart int
	BusinessHoursEnd   int

	// WhatsApp Business (Meta Graph API) configuration
	WhatsAppAPIKey        string
	WhatsAppPhoneID       string
	WhatsAppBaseURL       string
	WhatsAppWebhookToken  string
	WhatsAppWebhookSecret string

	// Google Calendar configuration
	CalendarCredentialsPath string
	CalendarID              string

	// Booking ledger store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Admin API
	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "America/Bogota"),
		BusinessHoursStart: getEnvAsInt("BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:   getEnvAsInt("BUSINESS_HOURS_END", 17),

		WhatsAppAPIKey:        getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppPhoneID:       getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
		WhatsAppWebhookToken:  getEnv("WHATSAPP_WEBHOOK_TOKEN", ""),
		WhatsAppWebhookSecret: getEnv("WHATSAPP_WEBHOOK_SECRET", ""),

		CalendarCredentialsPath: getEnv("CALENDAR_CREDENTIALS_PATH", ""),
		CalendarID:              getEnv("CALENDAR_ID", "primary"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// IsDevelopment reports whether the service runs in the development env.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
