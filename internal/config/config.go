package config

import (
	"errors"
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

	// External tabular store (AppSheet-style REST API)
	StoreBaseURL   string
	StoreAppID     string
	StoreAccessKey string
	StoreLocale    string
	StoreTimeout   time.Duration

	// Table names as configured in the store app
	ClientsTable      string
	ServicesTable     string
	AppointmentsTable string
	ScheduleTable     string
	BlackoutsTable    string
	MembershipsTable  string

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	ScheduleCacheTTL time.Duration
	SlotHoldTTL      time.Duration

	MaxRangeDays       int
	ShopTimezone       string
	CORSAllowedOrigins []string
	WriteRatePerMinute int
	WriteRateBurst     int

	// Confirmation emails
	EmailProvider       string
	EmailFrom           string
	EmailFromName       string
	SendGridAPIKey      string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBaseURL:   getEnv("STORE_BASE_URL", "https://api.appsheet.com/api/v2/apps"),
		StoreAppID:     getEnv("STORE_APP_ID", ""),
		StoreAccessKey: getEnv("STORE_ACCESS_KEY", ""),
		StoreLocale:    getEnv("STORE_LOCALE", "es-ES"),
		StoreTimeout:   getEnvAsDuration("STORE_TIMEOUT", 15*time.Second),

		ClientsTable:      getEnv("TABLE_CLIENTS", "Clientes"),
		ServicesTable:     getEnv("TABLE_SERVICES", "Servicios"),
		AppointmentsTable: getEnv("TABLE_APPOINTMENTS", "Turnos"),
		ScheduleTable:     getEnv("TABLE_SCHEDULE", "Disponibilidad"),
		BlackoutsTable:    getEnv("TABLE_BLACKOUTS", "Cancelaciones"),
		MembershipsTable:  getEnv("TABLE_MEMBERSHIPS", "Membresias"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		ScheduleCacheTTL: getEnvAsDuration("SCHEDULE_CACHE_TTL", 5*time.Minute),
		SlotHoldTTL:      getEnvAsDuration("SLOT_HOLD_TTL", 10*time.Minute),

		MaxRangeDays:       getEnvAsInt("MAX_RANGE_DAYS", 62),
		ShopTimezone:       getEnv("SHOP_TIMEZONE", "America/Argentina/Buenos_Aires"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		WriteRatePerMinute: getEnvAsInt("WRITE_RATE_PER_MINUTE", 30),
		WriteRateBurst:     getEnvAsInt("WRITE_RATE_BURST", 10),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		EmailFrom:           getEnv("EMAIL_FROM", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Barbatero"),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StoreAppID) == "" {
		errs = append(errs, errors.New("STORE_APP_ID is required"))
	}
	if strings.TrimSpace(c.StoreAccessKey) == "" {
		errs = append(errs, errors.New("STORE_ACCESS_KEY is required"))
	}
	if c.EmailProvider == "sendgrid" && strings.TrimSpace(c.SendGridAPIKey) == "" {
		errs = append(errs, errors.New("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "production" || env == "prod"
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
