package db

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// LogLevel is the configured logrus level; SQL is logged only at debug
	LogLevel string
	// Logger receives SQL and slow query logs. Defaults to the standard logrus logger.
	Logger *logrus.Logger
	// MaxOpenConns bounds the pool; 0 keeps the driver default
	MaxOpenConns int
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: NewLogger(cfg.Logger, cfg.LogLevel),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// NewLogger returns a gorm logger writing through logrus. It is silent
// unless level is "debug" or "trace".
func NewLogger(log *logrus.Logger, level string) logger.Interface {
	if log == nil {
		log = logrus.StandardLogger()
	}
	mode := logger.Silent
	if level == "debug" || level == "trace" {
		mode = logger.Info
	}
	return logger.New(log, logger.Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      mode,
	})
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
