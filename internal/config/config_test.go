package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_ValidConfigFile(t *testing.T) {
	cfg, err := Load("../../config")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("expected API addr 0.0.0.0:8080, got %s", cfg.API.Addr())
	}
	if cfg.API.WriteTimeout != 5*time.Minute {
		t.Errorf("expected API write timeout 5m, got %v", cfg.API.WriteTimeout)
	}
	if cfg.Validator.Endpoint != "https://emailvalidation.abstractapi.com/v1/" {
		t.Errorf("unexpected validator endpoint: %s", cfg.Validator.Endpoint)
	}
	if cfg.Validator.Timeout != 10*time.Second {
		t.Errorf("expected validator timeout 10s, got %v", cfg.Validator.Timeout)
	}
	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Interval != time.Second {
		t.Errorf("expected interval 1s, got %v", cfg.RateLimit.Interval)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database URL, got %s", cfg.Database.URL)
	}
	if cfg.Database.PoolMax != 4 {
		t.Errorf("expected pool max 4, got %d", cfg.Database.PoolMax)
	}
	if cfg.Report.Type != "" {
		t.Errorf("expected report export disabled, got %q", cfg.Report.Type)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Output != "stdout" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Auth.APIKeyHash != "" {
		t.Errorf("expected empty api key hash")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RateLimit.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", cfg.RateLimit.Interval)
	}
	if cfg.Logging.MaxFiles != 5 {
		t.Errorf("expected default max files 5, got %d", cfg.Logging.MaxFiles)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RECIPIENT_CHECK_VALIDATOR_API_KEY", "secret-key")
	t.Setenv("RECIPIENT_CHECK_RATELIMIT_INTERVAL", "2s")
	t.Setenv("RECIPIENT_CHECK_LOGGING_LEVEL", "debug")

	cfg, err := Load("../../config")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Validator.APIKey != "secret-key" {
		t.Errorf("expected api key from env, got %q", cfg.Validator.APIKey)
	}
	if cfg.RateLimit.Interval != 2*time.Second {
		t.Errorf("expected interval 2s, got %v", cfg.RateLimit.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoader_BindFlagsOverridesEnv(t *testing.T) {
	t.Setenv("RECIPIENT_CHECK_LOGGING_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	l := NewLoader()
	if err := l.BindFlags(flags, map[string]string{"logging.level": "log-level"}); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	cfg, err := l.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected flag value error, got %s", cfg.Logging.Level)
	}
}

func TestLoader_BindFlagsUnknown(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := NewLoader().BindFlags(flags, map[string]string{"logging.level": "nope"}); err == nil {
		t.Error("expected error for undefined flag")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Validator: ValidatorConfig{Timeout: time.Second},
			RateLimit: RateLimitConfig{Backend: "memory", Interval: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"redis backend", func(c *Config) { c.RateLimit.Backend = "redis" }, false},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "etcd" }, true},
		{"zero interval", func(c *Config) { c.RateLimit.Interval = 0 }, true},
		{"zero timeout", func(c *Config) { c.Validator.Timeout = 0 }, true},
		{"s3 without bucket", func(c *Config) { c.Report.Type = "s3" }, true},
		{"s3 with bucket", func(c *Config) { c.Report.Type = "s3"; c.Report.S3Bucket = "b" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
