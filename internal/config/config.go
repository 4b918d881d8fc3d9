// Package config loads recipient-check settings from config/config.yaml,
// RECIPIENT_CHECK_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override. RECIPIENT_CHECK_VALIDATOR_API_KEY
// overrides validator.api_key.
const EnvPrefix = "RECIPIENT_CHECK"

// Config holds all application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Validator ValidatorConfig `mapstructure:"validator"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ValidatorConfig configures the remote validation service.
type ValidatorConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig selects the throttle shared by validation calls.
type RateLimitConfig struct {
	Backend       string        `mapstructure:"backend"` // memory or redis
	Interval      time.Duration `mapstructure:"interval"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Key           string        `mapstructure:"key"`
}

// DatabaseConfig holds the usage ledger connection. An empty URL disables it.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// ReportConfig selects where finished runs are exported.
type ReportConfig struct {
	Type       string `mapstructure:"type"`
	Path       string `mapstructure:"path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Region   string `mapstructure:"s3_region"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// AuthConfig holds the bcrypt hash of the API bearer key. Empty disables auth.
type AuthConfig struct {
	APIKeyHash string `mapstructure:"api_key_hash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 5*time.Minute)

	v.SetDefault("validator.endpoint", "https://emailvalidation.abstractapi.com/v1/")
	v.SetDefault("validator.api_key", "")
	v.SetDefault("validator.timeout", 10*time.Second)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.interval", time.Second)
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.key", "recipient-check:validator")

	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_min", 1)
	v.SetDefault("database.pool_max", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("report.type", "")
	v.SetDefault("report.path", "reports")
	v.SetDefault("report.s3_bucket", "")
	v.SetDefault("report.s3_prefix", "")
	v.SetDefault("report.s3_endpoint", "")
	v.SetDefault("report.s3_region", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "logs/recipient-check.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_files", 5)

	v.SetDefault("auth.api_key_hash", "")
}

// Loader builds a Config. Flags bound with BindFlags take precedence over
// environment variables, which take precedence over the file.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment binding applied.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlags binds each config key in keys to the flag of the same map value.
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flag %q: not defined", name)
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads config.yaml from configPath if present and decodes the result.
// A missing file is not an error: defaults and environment still apply.
func (l *Loader) Load(configPath string) (*Config, error) {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(configPath)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from the given directory without flag bindings.
func Load(configPath string) (*Config, error) {
	return NewLoader().Load(configPath)
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown ratelimit.backend %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Interval <= 0 {
		return fmt.Errorf("config: ratelimit.interval must be positive, got %v", c.RateLimit.Interval)
	}
	if c.Validator.Timeout <= 0 {
		return fmt.Errorf("config: validator.timeout must be positive, got %v", c.Validator.Timeout)
	}
	if c.Report.Type == "s3" && c.Report.S3Bucket == "" {
		return errors.New("config: report.s3_bucket is required for s3 reports")
	}
	return nil
}
