package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:                 ":8080",
		Environment:          "development",
		BackendBaseURL:       "https://hr.example.test/api/",
		BackendTimeout:       5 * time.Second,
		SessionTTL:           time.Hour,
		DBDriver:             "sqlite",
		DBDSN:                "file::memory:",
		EvaluationStore:      StoreBackend,
		ReportPageSize:       10,
		MaxBodyBytes:         4096,
		RateLimitPerMinute:   60,
		StructureRefreshCron: "*/15 * * * *",
		SessionPruneCron:     "@hourly",
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("EVALUATION_STORE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ORIGINS", "https://hr.bcas.edu, ,http://localhost:3000")
	t.Setenv("BACKEND_TIMEOUT", "not-a-duration")
	t.Setenv("REPORT_PAGE_SIZE", "25")

	cfg := Load()
	if cfg.Addr != ":8080" || cfg.EvaluationStore != StoreBackend || cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.BackendTimeout != 10*time.Second || cfg.ReportPageSize != 25 {
		t.Fatalf("unexpected parsed values timeout=%s page=%d", cfg.BackendTimeout, cfg.ReportPageSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing backend", func(c *Config) { c.BackendBaseURL = "" }, "BACKEND_BASE_URL"},
		{"production without secret", func(c *Config) { c.Environment = "production" }, "JWT_SECRET"},
		{"production without key", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s3cret"
		}, "DATA_ENCRYPTION_KEY"},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"bad store", func(c *Config) { c.EvaluationStore = "s3" }, "EVALUATION_STORE"},
		{"bad strategy", func(c *Config) { c.ScoreStrategy = "average" }, "SCORE_STRATEGY"},
		{"bad schedule", func(c *Config) { c.StructureRefreshCron = "every minute" }, "STRUCTURE_REFRESH_CRON"},
		{"half client credentials", func(c *Config) { c.BackendTokenURL = "https://hr.example.test/token" }, "BACKEND_CLIENT_ID"},
		{"small body limit", func(c *Config) { c.MaxBodyBytes = 10 }, "MAX_BODY_BYTES"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
