package repositories

import (
	"errors"

	"chatsaas_backend/internal/models"

	"gorm.io/gorm"
)

var ErrChatbotNotFound = errors.New("chatbot not found")

type ChatbotRepository interface {
	Create(db *gorm.DB, chatbot *models.Chatbot) error
	FindByID(db *gorm.DB, id string) (*models.Chatbot, error)
	FindByUser(db *gorm.DB, userID string) ([]models.Chatbot, error)
	FindAll(db *gorm.DB) ([]models.Chatbot, error)
	Update(db *gorm.DB, id string, updates map[string]interface{}) error
}

type ChatbotRepositoryImpl struct{}

func NewChatbotRepository() ChatbotRepository {
	return &ChatbotRepositoryImpl{}
}

func (r *ChatbotRepositoryImpl) Create(db *gorm.DB, chatbot *models.Chatbot) error {
	return db.Create(chatbot).Error
}

func (r *ChatbotRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	if err := db.First(&chatbot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatbotNotFound
		}
		return nil, err
	}
	return &chatbot, nil
}

func (r *ChatbotRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Chatbot, error) {
	var chatbots []models.Chatbot
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&chatbots).Error
	return chatbots, err
}

func (r *ChatbotRepositoryImpl) FindAll(db *gorm.DB) ([]models.Chatbot, error) {
	var chatbots []models.Chatbot
	err := db.Order("created_at DESC").Find(&chatbots).Error
	return chatbots, err
}

func (r *ChatbotRepositoryImpl) Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.Model(&models.Chatbot{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChatbotNotFound
	}
	return nil
}
