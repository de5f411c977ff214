// Package config loads the service configuration from config.toml and
// BOOKKEEPING_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOOKKEEPING_DATABASE_HOST
const EnvPrefix = "BOOKKEEPING"

// Config is the whole service configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Finance     FinanceConfig     `mapstructure:"finance"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// LogConfig selects level (debug..error), format (json or console) and
// output (stdout, stderr or a file path).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DatabaseConfig addresses the bookkeeping PostgreSQL database. Connection
// lifetimes are minutes.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

// DSN renders a postgres:// URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig tunes the server. An empty CORSAllowOrigins denies cross-origin
// requests; the rate limit is per client IP.
type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// FinanceConfig holds bookkeeping defaults. Timezone decides what "today" is
// for status derivation and quick filters.
type FinanceConfig struct {
	DefaultCurrency string          `mapstructure:"default_currency"`
	DefaultIssRate  decimal.Decimal `mapstructure:"-"`
	Timezone        string          `mapstructure:"timezone"`
}

// Location resolves Timezone
func (f FinanceConfig) Location() (*time.Location, error) {
	return time.LoadLocation(f.Timezone)
}

// Preference store backends
const (
	PreferencesBackendRedis  = "redis"
	PreferencesBackendMemory = "memory"
)

// PreferencesConfig selects the UI preference store. A zero TTL keeps entries forever.
type PreferencesConfig struct {
	Backend   string        `mapstructure:"backend"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// defaults registers every key. Viper only maps environment variables onto
// keys it knows, so keys without a useful default are registered empty.
var defaults = map[string]any{
	"app.name": "bookkeeping-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "bookkeeping",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.migrations_path":    "migrations",

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      15 * time.Second,
	"http.idle_timeout":       time.Minute,
	"http.request_timeout":    30 * time.Second,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(10 << 20),
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "X-Request-ID"},
	"http.trusted_proxies":    []string{},
	"http.rate_limit_enabled": false,
	"http.rate_limit_rps":     50.0,
	"http.rate_limit_burst":   100,

	"telemetry.enabled":                 false,
	"telemetry.metrics_enabled":         false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "bookkeeping-backend",
	"telemetry.insecure":                false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"finance.default_currency": "BRL",
	"finance.default_iss_rate": "5",
	"finance.timezone":         "America/Sao_Paulo",

	"preferences.backend":    PreferencesBackendRedis,
	"preferences.key_prefix": "bookkeeping:prefs:",
	"preferences.ttl":        time.Duration(0),
}

// Load reads config.toml from ., ./backend or /app (all optional) and lets
// BOOKKEEPING_* variables override it. Unset keys take their defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./backend", "/app"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("finance.default_iss_rate")))
	if err != nil {
		return nil, fmt.Errorf("finance.default_iss_rate: %w", err)
	}
	cfg.Finance.DefaultIssRate = rate
	cfg.Finance.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.Finance.DefaultCurrency))
	cfg.Preferences.Backend = strings.ToLower(strings.TrimSpace(cfg.Preferences.Backend))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if err := c.validateProduction(); err != nil {
			return err
		}
	}

	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return errors.New("http.rate_limit_rps and http.rate_limit_burst cannot be negative")
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", r)
	}

	fin := c.Finance
	if len(fin.DefaultCurrency) != 3 {
		return fmt.Errorf("finance.default_currency must be a 3-letter code, got %q", fin.DefaultCurrency)
	}
	if fin.DefaultIssRate.IsNegative() || fin.DefaultIssRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("finance.default_iss_rate must be between 0 and 100, got %s", fin.DefaultIssRate)
	}
	if _, err := fin.Location(); err != nil {
		return fmt.Errorf("finance.timezone: %w", err)
	}

	if b := c.Preferences.Backend; b != PreferencesBackendRedis && b != PreferencesBackendMemory {
		return fmt.Errorf("preferences.backend must be %q or %q, got %q",
			PreferencesBackendRedis, PreferencesBackendMemory, b)
	}
	return nil
}

// validateProduction refuses settings that are only acceptable on a laptop
func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return errors.New("database.sslmode cannot be 'disable' in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("http.cors_allow_origins cannot be '*' in production")
		}
	}
	if c.Telemetry.DBLogFullSQL {
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	return nil
}
