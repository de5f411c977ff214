package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the PostgreSQL handle shared by the receivable and payable
// repositories. It satisfies handler.Pinger for the health probe.
type Database struct {
	DB *gorm.DB
}

// DatabaseOption customizes how the connection is opened
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	zapLogger     *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	tracing       *telemetry.DBTracingConfig
}

func (o databaseOptions) gormConfig() *gorm.Config {
	cfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(o.logLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if o.zapLogger != nil {
		cfg.Logger = logger.NewGormLogger(o.zapLogger, o.logLevel,
			logger.WithSlowThreshold(o.slowThreshold),
			logger.WithIgnoreRecordNotFoundError(true),
		)
	}
	return cfg
}

// WithLogger routes GORM logs through zap at the given level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.zapLogger = l
		o.logLevel = level
		o.slowThreshold = slowThreshold
	}
}

// WithTracing installs the otelgorm plugin once the connection is open
func WithTracing(cfg telemetry.DBTracingConfig) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = &cfg
	}
}

// NewDatabase connects to the bookkeeping database, sizes the pool and checks
// the server answers before any repository is built on top of it.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), o.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &Database{DB: db}

	sqlDB, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqlDB, cfg)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if o.tracing != nil {
		tl := o.zapLogger
		if tl == nil {
			tl = zap.NewNop()
		}
		if err := telemetry.RegisterDBTracing(db, *o.tracing, tl); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	return d, nil
}

// applyPoolSettings copies the pool limits from config; lifetimes are minutes.
func applyPoolSettings(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Close releases the pool
func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the server is reachable within ctx
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
