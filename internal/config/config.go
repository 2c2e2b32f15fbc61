package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// Reservation backend: "memory" (default) or "redis".
	ReservationBackend string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string

	AdminJWTSecret string

	ClinicPhone            string
	ReservationTTL         time.Duration
	SessionTTL             time.Duration
	SweepInterval          time.Duration
	AdvanceBookingWeekdays int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		ReservationBackend: strings.ToLower(strings.TrimSpace(getEnv("RESERVATION_BACKEND", "memory"))),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ClinicPhone:            getEnv("CLINIC_PHONE", "934 934 5538"),
		ReservationTTL:         getEnvAsDuration("RESERVATION_TTL", 5*time.Minute),
		SessionTTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval:          getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		AdvanceBookingWeekdays: getEnvAsInt("ADVANCE_BOOKING_WEEKDAYS", 7),
	}
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
