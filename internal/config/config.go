package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	CatalogCacheTTL    time.Duration
	CatalogPageSize    int
	CORSAllowedOrigins []string
	MetricsEnabled     bool

	// Per-user chat rate limit; a non-positive rate disables it.
	ChatRateLimitRPS   float64
	ChatRateLimitBurst int

	// Identity: when AuthJWTSecret is empty the X-User-Id header set by the
	// account service is trusted as-is.
	AuthJWTSecret  string
	AdminJWTSecret string

	// Chat-completion provider
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	LLMDefaultModel string
	LLMTemperature  float64
	LLMTopP         float64
	LLMMaxTokens    float64
	LLMHTTPTimeout  time.Duration

	// Crisis handling
	CrisisRegion        string
	EmergencyTeamName   string
	EmergencyTeamEmail  string
	EmergencyTeamPhone  string
	EmergencyTeamRegion string

	// Alert email ("sendgrid", "ses" or "" for log-only)
	AlertEmailProvider  string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	SESFromEmail        string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables. A local .env file is
// honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		CatalogCacheTTL:    getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CatalogPageSize:    getEnvAsInt("CATALOG_PAGE_SIZE", 50),
		CORSAllowedOrigins: getEnvAsCSV("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		ChatRateLimitRPS:   getEnvAsFloat("CHAT_RATE_LIMIT_RPS", 0.5),
		ChatRateLimitBurst: getEnvAsInt("CHAT_RATE_LIMIT_BURST", 5),

		AuthJWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMDefaultModel: getEnv("LLM_DEFAULT_MODEL", "openai/gpt-4o-mini"),
		LLMTemperature:  getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMTopP:         getEnvAsFloat("LLM_TOP_P", 0.9),
		LLMMaxTokens:    getEnvAsFloat("LLM_MAX_TOKENS", 400),
		LLMHTTPTimeout:  getEnvAsDuration("LLM_HTTP_TIMEOUT", 60*time.Second),

		CrisisRegion:        strings.ToUpper(strings.TrimSpace(getEnv("CRISIS_REGION", "US"))),
		EmergencyTeamName:   getEnv("EMERGENCY_TEAM_NAME", "Care Team On-Call"),
		EmergencyTeamEmail:  getEnv("EMERGENCY_TEAM_EMAIL", ""),
		EmergencyTeamPhone:  getEnv("EMERGENCY_TEAM_PHONE", ""),
		EmergencyTeamRegion: strings.ToUpper(strings.TrimSpace(getEnv("EMERGENCY_TEAM_REGION", ""))),

		AlertEmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("ALERT_EMAIL_PROVIDER", ""))),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Wellness Companion"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// ProviderConfigured reports whether a chat-completion credential is present.
func (c *Config) ProviderConfigured() bool {
	return c != nil && strings.TrimSpace(c.LLMAPIKey) != ""
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
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
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

// getEnvAsFloat parses a float. "NaN" and "Inf" parse successfully and are
// passed through; the gateway clamps them to its named fallbacks.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return math.NaN()
}

func getEnvAsCSV(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
