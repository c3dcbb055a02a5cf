package db

import (
	"fmt"

	"eduseek/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the attempt store at dbPath and migrates it.
func Init(dbPath string) error {
	conn, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}

	if err := conn.AutoMigrate(&model.SyncAttempt{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	DB = conn
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}

	DB = nil
	return sqlDB.Close()
}
