package database

import (
	"context"
	"time"

	"github.com/wayakart27/ecommerce-sub002/config"
	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the MySQL connection pool. The returned handle is created once
// at process start and passed to repositories explicitly.
func NewDB(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(mysql.Open(cfg.DSN), log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// Open opens a gorm handle over any dialector. SQL is only logged on error.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ReferralProgram{},
		&models.PendingReferral{},
		&models.CompletedReferral{},
		&models.PayoutRecord{},
		&models.ShippingConfig{},
		&models.StateShippingPrice{},
		&models.CityShippingPrice{},
		&models.Notification{},
		&models.AuditLog{},
		&models.SystemSetting{},
	)
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
