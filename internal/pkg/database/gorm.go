package database

import (
	"fmt"
	log "log/slog"
	"time"

	"Townhall/internal/api/config"
	"Townhall/internal/model"
	"Townhall/internal/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB opens MySQL with the configured pool and migrates the directory tables
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// Migrate users and user_follows
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.UserFollow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
