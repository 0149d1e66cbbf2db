package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FromEnvironmentVariables(t *testing.T) {
	modelFile := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(modelFile, []byte(`{"weights":[1,1,1,1,1,1,1],"bias":0}`), 0644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}

	t.Setenv("DB_HOST", "testhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("API_PORT", "9090")
	t.Setenv("DELIVERY_API_URL", "https://delivery.test")
	t.Setenv("DELIVERY_API_TOKEN", "test_token")
	t.Setenv("WORKER_POLL_INTERVAL", "10s")
	t.Setenv("MAX_RETRY_ATTEMPTS", "3")
	t.Setenv("ENABLE_AUTH", "true")
	t.Setenv("SHARED_SECRET", "test_secret")
	t.Setenv("FOLLOW_UP_AFTER", "12h")
	t.Setenv("DEFAULT_LANGUAGE", "es")
	t.Setenv("SCORING_MODEL_PATH", modelFile)
	t.Setenv("CUSTOM_RULES_FILE", "/etc/rules.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Host != "testhost" {
		t.Errorf("Expected DB_HOST=testhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.User != "testuser" {
		t.Errorf("Expected DB_USER=testuser, got %s", cfg.Database.User)
	}
	if cfg.API.Port != "9090" {
		t.Errorf("Expected API_PORT=9090, got %s", cfg.API.Port)
	}
	if cfg.Delivery.URL != "https://delivery.test" {
		t.Errorf("Expected DELIVERY_API_URL=https://delivery.test, got %s", cfg.Delivery.URL)
	}
	if cfg.Worker.PollInterval != 10*time.Second {
		t.Errorf("Expected WORKER_POLL_INTERVAL=10s, got %v", cfg.Worker.PollInterval)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Expected MAX_RETRY_ATTEMPTS=3, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.Auth.Enabled || cfg.Auth.SharedSecret != "test_secret" {
		t.Errorf("Expected auth enabled with secret, got %+v", cfg.Auth)
	}
	if cfg.Engagement.FollowUpAfter != 12*time.Hour {
		t.Errorf("Expected FOLLOW_UP_AFTER=12h, got %v", cfg.Engagement.FollowUpAfter)
	}
	if cfg.Engagement.DefaultLanguage != "es" {
		t.Errorf("Expected DEFAULT_LANGUAGE=es, got %s", cfg.Engagement.DefaultLanguage)
	}
	if cfg.Engagement.ScoringModelPath != modelFile {
		t.Errorf("Expected SCORING_MODEL_PATH=%s, got %s", modelFile, cfg.Engagement.ScoringModelPath)
	}
	if cfg.Engagement.CustomRulesFile != "/etc/rules.json" {
		t.Errorf("Expected CUSTOM_RULES_FILE=/etc/rules.json, got %s", cfg.Engagement.CustomRulesFile)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	for _, key := range []string{"DB_HOST", "API_PORT", "WORKER_POLL_INTERVAL", "ENABLE_AUTH", "FOLLOW_UP_AFTER", "SCORING_MODEL_PATH", "DELIVERY_API_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected default DB_HOST=localhost, got %s", cfg.Database.Host)
	}
	if cfg.API.Port != "8080" {
		t.Errorf("Expected default API_PORT=8080, got %s", cfg.API.Port)
	}
	if cfg.Worker.PollInterval != 5*time.Second {
		t.Errorf("Expected default WORKER_POLL_INTERVAL=5s, got %v", cfg.Worker.PollInterval)
	}
	if cfg.Auth.Enabled {
		t.Error("Expected default ENABLE_AUTH=false")
	}
	if cfg.Engagement.FollowUpAfter != 24*time.Hour {
		t.Errorf("Expected default FOLLOW_UP_AFTER=24h, got %v", cfg.Engagement.FollowUpAfter)
	}
	if cfg.Engagement.ScoringModelPath != "" {
		t.Errorf("Expected no scoring model by default, got %s", cfg.Engagement.ScoringModelPath)
	}
}

func TestLoad_APIDoesNotRequireDeliverySettings(t *testing.T) {
	t.Setenv("DELIVERY_API_URL", "")
	t.Setenv("DELIVERY_API_TOKEN", "")
	t.Setenv("ENABLE_AUTH", "false")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() should succeed without delivery settings, got %v", err)
	}
}

func TestValidate_MissingSharedSecretWhenAuthEnabled(t *testing.T) {
	cfg := &Config{
		Auth:       AuthConfig{Enabled: true},
		Engagement: EngagementConfig{FollowUpAfter: time.Hour},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for missing SHARED_SECRET when auth enabled")
	}
	if err.Error() != "SHARED_SECRET is required when ENABLE_AUTH is true" {
		t.Errorf("Expected error message about SHARED_SECRET, got %v", err)
	}
}

func TestValidate_MissingModelFile(t *testing.T) {
	cfg := &Config{
		Engagement: EngagementConfig{
			FollowUpAfter:    time.Hour,
			ScoringModelPath: "/nonexistent/model.json",
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for unreadable SCORING_MODEL_PATH")
	}
}

func TestValidate_NonPositiveFollowUp(t *testing.T) {
	cfg := &Config{Engagement: EngagementConfig{FollowUpAfter: 0}}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for zero FOLLOW_UP_AFTER")
	}
}

func TestValidateWorker(t *testing.T) {
	base := func() *Config {
		return &Config{
			Delivery:   DeliveryConfig{URL: "https://delivery.test", Token: "token"},
			Retry:      RetryConfig{MaxAttempts: 3},
			Engagement: EngagementConfig{FollowUpAfter: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.Delivery.URL = "" }, "DELIVERY_API_URL is required"},
		{"missing token", func(c *Config) { c.Delivery.Token = "" }, "DELIVERY_API_TOKEN is required"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "MAX_RETRY_ATTEMPTS must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.ValidateWorker()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"no", false},
		{"", false},
	}

	for _, tt := range tests {
		if result := parseBool(tt.input); result != tt.expected {
			t.Errorf("parseBool(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input        string
		defaultValue int
		expected     int
	}{
		{"42", 10, 42},
		{"-5", 10, -5},
		{"invalid", 10, 10},
		{"", 10, 10},
	}

	for _, tt := range tests {
		if result := parseInt(tt.input, tt.defaultValue); result != tt.expected {
			t.Errorf("parseInt(%q, %d) = %d, expected %d", tt.input, tt.defaultValue, result, tt.expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input        string
		defaultValue time.Duration
		expected     time.Duration
	}{
		{"5s", 10 * time.Second, 5 * time.Second},
		{"24h", time.Hour, 24 * time.Hour},
		{"invalid", 10 * time.Second, 10 * time.Second},
		{"", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		if result := parseDuration(tt.input, tt.defaultValue); result != tt.expected {
			t.Errorf("parseDuration(%q, %v) = %v, expected %v", tt.input, tt.defaultValue, result, tt.expected)
		}
	}
}

func TestLoad_DatabasePoolSettings(t *testing.T) {
	t.Setenv("ENABLE_AUTH", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "40")
	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database.MaxOpenConns != 40 {
		t.Errorf("Expected DB_MAX_OPEN_CONNS=40, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 0 {
		t.Errorf("Expected unset DB_MAX_IDLE_CONNS to stay 0, got %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime != 10*time.Minute {
		t.Errorf("Expected DB_CONN_MAX_LIFETIME=10m, got %v", cfg.Database.ConnMaxLifetime)
	}
}

func TestValidate_NegativePoolSize(t *testing.T) {
	cfg := &Config{
		Database:   DatabaseConfig{MaxOpenConns: -1},
		Engagement: EngagementConfig{FollowUpAfter: time.Hour},
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for negative DB_MAX_OPEN_CONNS")
	}
}
