package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envKeys lists every override touched by these tests so each subtest starts clean.
var envKeys = []string{
	"BOOKKEEPING_APP_NAME",
	"BOOKKEEPING_APP_ENV",
	"BOOKKEEPING_APP_PORT",
	"BOOKKEEPING_DATABASE_HOST",
	"BOOKKEEPING_DATABASE_PORT",
	"BOOKKEEPING_DATABASE_USER",
	"BOOKKEEPING_DATABASE_PASSWORD",
	"BOOKKEEPING_DATABASE_DBNAME",
	"BOOKKEEPING_DATABASE_SSLMODE",
	"BOOKKEEPING_DATABASE_MAX_OPEN_CONNS",
	"BOOKKEEPING_DATABASE_MAX_IDLE_CONNS",
	"BOOKKEEPING_HTTP_CORS_ALLOW_ORIGINS",
	"BOOKKEEPING_HTTP_RATE_LIMIT_ENABLED",
	"BOOKKEEPING_HTTP_RATE_LIMIT_RPS",
	"BOOKKEEPING_HTTP_RATE_LIMIT_BURST",
	"BOOKKEEPING_TELEMETRY_SAMPLING_RATIO",
	"BOOKKEEPING_TELEMETRY_DB_LOG_FULL_SQL",
	"BOOKKEEPING_FINANCE_DEFAULT_CURRENCY",
	"BOOKKEEPING_FINANCE_DEFAULT_ISS_RATE",
	"BOOKKEEPING_FINANCE_TIMEZONE",
	"BOOKKEEPING_PREFERENCES_BACKEND",
	"BOOKKEEPING_PREFERENCES_TTL",
}

// clearEnv blanks every known override for the duration of the test.
// viper treats an empty variable as unset, so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bookkeeping-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "bookkeeping", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "BRL", cfg.Finance.DefaultCurrency)
		assert.True(t, cfg.Finance.DefaultIssRate.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, "America/Sao_Paulo", cfg.Finance.Timezone)
		assert.Equal(t, PreferencesBackendRedis, cfg.Preferences.Backend)
		assert.Equal(t, "bookkeeping:prefs:", cfg.Preferences.KeyPrefix)
		assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
		assert.False(t, cfg.HTTP.RateLimitEnabled)
		assert.Equal(t, 50.0, cfg.HTTP.RateLimitRPS)
		assert.Equal(t, 100, cfg.HTTP.RateLimitBurst)
	})

	t.Run("loads values from environment variables with BOOKKEEPING prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_APP_NAME", "test-app")
		t.Setenv("BOOKKEEPING_APP_ENV", "testing")
		t.Setenv("BOOKKEEPING_APP_PORT", "9000")
		t.Setenv("BOOKKEEPING_DATABASE_HOST", "testdb.local")
		t.Setenv("BOOKKEEPING_DATABASE_PORT", "5433")
		t.Setenv("BOOKKEEPING_DATABASE_USER", "testuser")
		t.Setenv("BOOKKEEPING_DATABASE_PASSWORD", "testpass")
		t.Setenv("BOOKKEEPING_DATABASE_DBNAME", "testdb")
		t.Setenv("BOOKKEEPING_DATABASE_SSLMODE", "require")
		t.Setenv("BOOKKEEPING_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("BOOKKEEPING_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("BOOKKEEPING_FINANCE_DEFAULT_CURRENCY", "usd")
		t.Setenv("BOOKKEEPING_FINANCE_DEFAULT_ISS_RATE", "2.5")
		t.Setenv("BOOKKEEPING_FINANCE_TIMEZONE", "UTC")
		t.Setenv("BOOKKEEPING_PREFERENCES_BACKEND", "Memory")
		t.Setenv("BOOKKEEPING_PREFERENCES_TTL", "24h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "USD", cfg.Finance.DefaultCurrency)
		assert.True(t, cfg.Finance.DefaultIssRate.Equal(decimal.RequireFromString("2.5")))
		assert.Equal(t, PreferencesBackendMemory, cfg.Preferences.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Preferences.TTL)

		loc, err := cfg.Finance.Location()
		require.NoError(t, err)
		assert.Equal(t, "UTC", loc.String())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("BOOKKEEPING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects an explicit zero MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_DATABASE_MAX_OPEN_CONNS", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_open_conns must be positive")
	})

	t.Run("splits comma separated lists", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_HTTP_CORS_ALLOW_ORIGINS", "https://app.example.com,https://admin.example.com")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.HTTP.CORSAllowOrigins)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects an unknown preferences backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_PREFERENCES_BACKEND", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "preferences.backend")
	})

	t.Run("rejects a malformed ISS rate", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_FINANCE_DEFAULT_ISS_RATE", "five")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finance.default_iss_rate")
	})

	t.Run("rejects an ISS rate above 100", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_FINANCE_DEFAULT_ISS_RATE", "101")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 0 and 100")
	})

	t.Run("rejects an unknown timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_FINANCE_TIMEZONE", "Mars/Olympus_Mons")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finance.timezone")
	})

	t.Run("reads the rate limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_HTTP_RATE_LIMIT_ENABLED", "true")
		t.Setenv("BOOKKEEPING_HTTP_RATE_LIMIT_RPS", "2.5")
		t.Setenv("BOOKKEEPING_HTTP_RATE_LIMIT_BURST", "5")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.HTTP.RateLimitEnabled)
		assert.Equal(t, 2.5, cfg.HTTP.RateLimitRPS)
		assert.Equal(t, 5, cfg.HTTP.RateLimitBurst)
	})

	t.Run("rejects a negative rate limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_HTTP_RATE_LIMIT_BURST", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit")
	})

	t.Run("rejects a sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKKEEPING_APP_ENV", "production")
		t.Setenv("BOOKKEEPING_DATABASE_PASSWORD", "secure-password")
		t.Setenv("BOOKKEEPING_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BOOKKEEPING_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BOOKKEEPING_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BOOKKEEPING_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("BOOKKEEPING_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Equal(t, "postgres://user:@localhost:5432/db?sslmode=disable", cfg.DSN())
	})
}
