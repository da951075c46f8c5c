package config

import (
	"strings"
	"testing"
	"time"
)

const (
	testSecret = "test-secret-32-characters-long!!"
	testAPIKey = "test-api-key-32-characters-long!"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PAYLOAD_SECRET", testSecret)
	t.Setenv("API_KEY", testAPIKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	durations := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"RateLimit.Window", cfg.RateLimit.Window, 15 * time.Minute},
		{"RateLimit.SweepInterval", cfg.RateLimit.SweepInterval, 5 * time.Minute},
		{"Detection.Window", cfg.Detection.Window, time.Hour},
		{"Detection.HistoryRetention", cfg.Detection.HistoryRetention, 24 * time.Hour},
	}

	for _, tt := range durations {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.RateLimit.MaxAttempts != 5 {
		t.Errorf("MaxAttempts: got %d, want 5", cfg.RateLimit.MaxAttempts)
	}
	if cfg.RateLimit.Store != StoreMemory {
		t.Errorf("Store: got %q, want %q", cfg.RateLimit.Store, StoreMemory)
	}
	if cfg.Server.APIRateLimit != 60 {
		t.Errorf("APIRateLimit: got %d, want 60", cfg.Server.APIRateLimit)
	}
	if cfg.Database.Enabled() {
		t.Error("Database.Enabled() = true without DATABASE_URL or DB_HOST")
	}
	if cfg.Server.APIKey != testAPIKey {
		t.Errorf("APIKey: got %q, want %q", cfg.Server.APIKey, testAPIKey)
	}
	if len(cfg.Server.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies: got %v, want none", cfg.Server.TrustedProxies)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("RATE_LIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "10m")
	t.Setenv("RATE_LIMIT_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10 ,")
	t.Setenv("TIMING_DELAY_ON_SUCCESS", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/authguard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.RateLimit.MaxAttempts != 3 || cfg.RateLimit.Window != 10*time.Minute {
		t.Errorf("RateLimit: got %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Store != StoreRedis {
		t.Errorf("Store: got %q, want %q", cfg.RateLimit.Store, StoreRedis)
	}
	if got := strings.Join(cfg.Server.TrustedProxies, "|"); got != "10.0.0.0/8|192.168.1.10" {
		t.Errorf("TrustedProxies: got %q", got)
	}
	if !cfg.Timing.DelayOnSuccess {
		t.Error("DelayOnSuccess: got false, want true")
	}
	if !cfg.Database.Enabled() || cfg.Database.DSN() != "postgres://u:p@db:5432/authguard" {
		t.Errorf("Database: enabled=%v dsn=%q", cfg.Database.Enabled(), cfg.Database.DSN())
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT_MAX_ATTEMPTS", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
	if cfg.RateLimit.MaxAttempts != 5 {
		t.Errorf("MaxAttempts with invalid value: got %d, want 5", cfg.RateLimit.MaxAttempts)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing payload secret",
			env:     map[string]string{},
			wantErr: "PAYLOAD_SECRET is required",
		},
		{
			name:    "short secret in production",
			env:     map[string]string{"PAYLOAD_SECRET": "only-twenty-chars!!!", "ENV": "production"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "missing api key",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "API_KEY": ""},
			wantErr: "API_KEY is required",
		},
		{
			name:    "short api key",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "API_KEY": "short"},
			wantErr: "API_KEY must be at least 16 characters",
		},
		{
			name:    "api key reuses payload secret",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "API_KEY": testSecret},
			wantErr: "API_KEY must differ from PAYLOAD_SECRET",
		},
		{
			name:    "unknown store",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "RATE_LIMIT_STORE": "memcached"},
			wantErr: "RATE_LIMIT_STORE",
		},
		{
			name:    "redis store without url",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "RATE_LIMIT_STORE": "redis"},
			wantErr: "REDIS_URL is required",
		},
		{
			name:    "zero max attempts",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "RATE_LIMIT_MAX_ATTEMPTS": "0"},
			wantErr: "RATE_LIMIT_MAX_ATTEMPTS",
		},
		{
			name:    "db host without password",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "DB_HOST": "db"},
			wantErr: "DB_PASSWORD is required",
		},
		{
			name:    "bad trusted proxy",
			env:     map[string]string{"PAYLOAD_SECRET": testSecret, "TRUSTED_PROXIES": "10.0.0.0/33"},
			wantErr: "TRUSTED_PROXIES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYLOAD_SECRET", "")
			t.Setenv("API_KEY", testAPIKey)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
