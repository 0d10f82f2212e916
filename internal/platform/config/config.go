package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	StoreBackend = "backend"
	StoreLocal   = "local"
)

type Config struct {
	Addr                 string
	Environment          string
	BackendBaseURL       string
	BackendTimeout       time.Duration
	BackendTokenURL      string
	BackendClientID      string
	BackendClientSecret  string
	JWTSecret            string
	SessionTTL           time.Duration
	DataEncryptionKey    string
	DBDriver             string
	DBDSN                string
	EvaluationStore      string
	ScoreStrategy        string
	ReportPageSize       int
	CORSOrigins          []string
	MaxBodyBytes         int64
	RateLimitPerMinute   int
	StructureRefreshCron string
	SessionPruneCron     string
	MetricsEnabled       bool
	FrontendDir          string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "err", err)
	}
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		Environment:          getEnv("APP_ENV", "development"),
		BackendBaseURL:       getEnv("BACKEND_BASE_URL", "https://localhost:7245/api/"),
		BackendTimeout:       getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendTokenURL:      getEnv("BACKEND_TOKEN_URL", ""),
		BackendClientID:      getEnv("BACKEND_CLIENT_ID", ""),
		BackendClientSecret:  getEnv("BACKEND_CLIENT_SECRET", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		SessionTTL:           getEnvDuration("SESSION_TTL", 8*time.Hour),
		DataEncryptionKey:    getEnv("DATA_ENCRYPTION_KEY", ""),
		DBDriver:             getEnv("DB_DRIVER", "sqlite"),
		DBDSN:                getEnv("DB_DSN", "file:hrms.db?_pragma=busy_timeout(5000)"),
		EvaluationStore:      getEnv("EVALUATION_STORE", StoreBackend),
		ScoreStrategy:        getEnv("SCORE_STRATEGY", ""),
		ReportPageSize:       getEnvInt("REPORT_PAGE_SIZE", 10),
		CORSOrigins:          getEnvCSV("CORS_ORIGINS", []string{"http://localhost:5173"}),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		StructureRefreshCron: getEnv("STRUCTURE_REFRESH_CRON", "*/15 * * * *"),
		SessionPruneCron:     getEnv("SESSION_PRUNE_CRON", "@hourly"),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		FrontendDir:          getEnv("FRONTEND_DIR", "frontend/dist"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvCSV(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) ClientCredentialsConfigured() bool {
	return c.BackendTokenURL != "" && c.BackendClientID != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendBaseURL) == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres")
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch c.EvaluationStore {
	case StoreBackend, StoreLocal:
	default:
		return fmt.Errorf("EVALUATION_STORE must be backend or local")
	}
	switch c.ScoreStrategy {
	case "", "attendance_folded", "attendance_display_only":
	default:
		return fmt.Errorf("SCORE_STRATEGY must be attendance_folded or attendance_display_only")
	}
	if c.ReportPageSize <= 0 || c.ReportPageSize > 200 {
		return fmt.Errorf("REPORT_PAGE_SIZE must be between 1 and 200")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for key, spec := range map[string]string{
		"STRUCTURE_REFRESH_CRON": c.StructureRefreshCron,
		"SESSION_PRUNE_CRON":     c.SessionPruneCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s is not a valid schedule: %w", key, err)
		}
	}
	if (c.BackendTokenURL == "") != (c.BackendClientID == "") {
		return fmt.Errorf("BACKEND_TOKEN_URL and BACKEND_CLIENT_ID must be set together")
	}
	return nil
}
