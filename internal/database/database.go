package database

import (
	"fmt"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models - все таблицы приложения, в порядке миграции
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Chatbot{},
		&models.Conversation{},
		&models.Message{},
		&models.Download{},
		&models.Promotion{},
		&models.EmailTemplate{},
		&models.SiteConfig{},
		&models.BlogPost{},
		&models.PaymentEvent{},
	}
}

// GormConfig - общие настройки gorm (postgres и тестовый sqlite)
func GormConfig(debug bool) *gorm.Config {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Connect открывает postgres по DSN и проверяет соединение
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("AutoMigrate completed")
	return nil
}
