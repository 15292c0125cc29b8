package repositories

import (
	"errors"
	"time"

	"chatsaas_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
)

type ConversationRepository interface {
	Create(db *gorm.DB, conversation *models.Conversation) error
	FindByID(db *gorm.DB, id string) (*models.Conversation, error)
	// FindByIDForUpdate блокирует строку диалога до конца транзакции (postgres)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Conversation, error)
	FindByUser(db *gorm.DB, userID, chatbotID string) ([]models.Conversation, error)
	Touch(db *gorm.DB, id string, at time.Time) error

	// Message operations
	AppendMessage(db *gorm.DB, conversationID, content string, isFromUser bool) (*models.Message, error)
	FindMessages(db *gorm.DB, conversationID string) ([]models.Message, error)
	FindRecentMessages(db *gorm.DB, conversationID string, limit int) ([]models.Message, error)

	// Stats
	CountConversations(db *gorm.DB) (int64, error)
	CountMessages(db *gorm.DB) (int64, error)
}

type ConversationRepositoryImpl struct{}

func NewConversationRepository() ConversationRepository {
	return &ConversationRepositoryImpl{}
}

func (r *ConversationRepositoryImpl) Create(db *gorm.DB, conversation *models.Conversation) error {
	return db.Create(conversation).Error
}

func (r *ConversationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Conversation, error) {
	return r.find(db, id)
}

func (r *ConversationRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Conversation, error) {
	return r.find(forUpdate(db), id)
}

func (r *ConversationRepositoryImpl) find(db *gorm.DB, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := db.First(&conversation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepositoryImpl) FindByUser(db *gorm.DB, userID, chatbotID string) ([]models.Conversation, error) {
	query := db.Where("user_id = ?", userID)
	if chatbotID != "" {
		query = query.Where("chatbot_id = ?", chatbotID)
	}
	var conversations []models.Conversation
	err := query.Order("updated_at DESC").Find(&conversations).Error
	return conversations, err
}

func (r *ConversationRepositoryImpl) Touch(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", at).Error
}

// AppendMessage добавляет сообщение в конец диалога.
// Позиция берется как MAX(position)+1; уникальный индекс (conversation_id, position)
// не даст двум параллельным вставкам получить одну позицию.
func (r *ConversationRepositoryImpl) AppendMessage(db *gorm.DB, conversationID, content string, isFromUser bool) (*models.Message, error) {
	var last int
	err := db.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversationID,
		Position:       last + 1,
		Content:        content,
		IsFromUser:     isFromUser,
	}
	if err := db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *ConversationRepositoryImpl) FindMessages(db *gorm.DB, conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("conversation_id = ?", conversationID).Order("position ASC").Find(&messages).Error
	return messages, err
}

// FindRecentMessages возвращает последние limit сообщений в хронологическом порядке
func (r *ConversationRepositoryImpl) FindRecentMessages(db *gorm.DB, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	var messages []models.Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("position DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *ConversationRepositoryImpl) CountConversations(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Conversation{}).Count(&count).Error
	return count, err
}

func (r *ConversationRepositoryImpl) CountMessages(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Message{}).Count(&count).Error
	return count, err
}
