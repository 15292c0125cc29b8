// Package testutil содержит общие хелперы для тестов: in-memory БД и фикстуры.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/database"
	"chatsaas_backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB поднимает отдельную in-memory sqlite базу на тест
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(false))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// одно соединение: in-memory база живет, пока открыто соединение, и sqlite не любит параллельную запись
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser создает пользователя с паролем "password123"
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, tier models.SubscriptionTier, endsAt *time.Time) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:              email,
		PasswordHash:       &hash,
		Name:               "Test User",
		Role:               role,
		Subscription:       tier,
		SubscriptionEndsAt: endsAt,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateChatbot создает активный чатбот пользователя
func CreateChatbot(t *testing.T, db *gorm.DB, ownerID, webhookURL string) *models.Chatbot {
	t.Helper()

	bot := &models.Chatbot{
		Name:        "Assistant",
		WebhookURL:  webhookURL,
		IsActive:    true,
		AccessLevel: models.AccessPublic,
		UserID:      ownerID,
	}
	require.NoError(t, db.Create(bot).Error)
	return bot
}
