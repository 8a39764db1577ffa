package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	ClinicName    string
	ClinicTimezone string

	// Session lifecycle
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	SessionHistoryLimit  int

	// Open-slot cache (display/matching only, never the commit path)
	SlotCacheTTL time.Duration

	// Working hours for bookable slots
	WorkingHoursStart int // hour of day, inclusive
	WorkingHoursEnd   int // hour of day, exclusive

	// Gemini NLU
	GeminiAPIKey  string
	GeminiModelID string

	// Audit sink (optional; log-only when unset)
	AuditDatabaseURL string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ClinicName:     getEnv("CLINIC_NAME", "BrightSmile Dental"),
		ClinicTimezone: getEnv("CLINIC_TZ", "UTC"),

		SessionIdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 10*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		SessionHistoryLimit:  getEnvAsInt("SESSION_HISTORY_LIMIT", 20),

		SlotCacheTTL: getEnvAsDuration("SLOT_CACHE_TTL", 2*time.Minute),

		WorkingHoursStart: getEnvAsInt("WORKING_HOURS_START", 9),
		WorkingHoursEnd:   getEnvAsInt("WORKING_HOURS_END", 18),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		AuditDatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
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
