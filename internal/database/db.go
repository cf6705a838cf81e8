package database

import (
	"fmt"
	"log/slog"
	"time"

	"riskdash/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is nil when no DSN is configured; every helper in this package is then
// a no-op.
var DB *gorm.DB

var logger = slog.Default()

const (
	maxAttempts = 10
	retryDelay  = 2 * time.Second
)

func Init(dsn string, log *slog.Logger) error {
	if log != nil {
		logger = log
	}

	db, err := connect(postgres.Open(dsn), maxAttempts, retryDelay)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	DB = db
	return nil
}

func connect(dialector gorm.Dialector, attempts int, delay time.Duration) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= attempts; i++ {
		logger.Info("trying to connect to DB", "attempt", i, "max", attempts)

		db, err = gorm.Open(dialector, &gorm.Config{})
		if err == nil {
			logger.Info("connected to DB successfully")
			return db, nil
		}

		logger.Warn("failed to connect to DB", "error", err)
		if i < attempts {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("failed to connect to db after %d attempts: %w", attempts, err)
}

// Close releases the connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
