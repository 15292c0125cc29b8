package services

import (
	"errors"
	"strings"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const defaultChatbotName = "Assistant"

type ChatbotService interface {
	// ListOwn возвращает чатботы пользователя, при первом обращении создает "Assistant"
	ListOwn(db *gorm.DB, userID string) ([]models.Chatbot, error)
	Create(db *gorm.DB, userID string, req *dto.CreateChatbotRequest) (*models.Chatbot, error)
	Update(db *gorm.DB, userID, chatbotID string, req *dto.UpdateChatbotRequest) (*models.Chatbot, error)
}

type ChatbotServiceImpl struct {
	chatbotRepo       repositories.ChatbotRepository
	defaultWebhookURL string
}

func NewChatbotService(chatbotRepo repositories.ChatbotRepository, defaultWebhookURL string) ChatbotService {
	return &ChatbotServiceImpl{
		chatbotRepo:       chatbotRepo,
		defaultWebhookURL: defaultWebhookURL,
	}
}

func (s *ChatbotServiceImpl) ListOwn(db *gorm.DB, userID string) ([]models.Chatbot, error) {
	var chatbots []models.Chatbot
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		chatbots, err = s.chatbotRepo.FindByUser(tx, userID)
		if err != nil || len(chatbots) > 0 {
			return err
		}

		chatbot := &models.Chatbot{
			Name:        defaultChatbotName,
			Description: "Default assistant",
			WebhookURL:  s.defaultWebhookURL,
			IsActive:    true,
			AccessLevel: models.AccessPublic,
			UserID:      userID,
		}
		if err := s.chatbotRepo.Create(tx, chatbot); err != nil {
			return err
		}
		logger.Info("Default chatbot provisioned", "user_id", userID, "chatbot_id", chatbot.ID)
		chatbots = []models.Chatbot{*chatbot}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return chatbots, nil
}

func (s *ChatbotServiceImpl) Create(db *gorm.DB, userID string, req *dto.CreateChatbotRequest) (*models.Chatbot, error) {
	level := models.AccessPublic
	if req.AccessLevel != "" {
		level, _ = models.ParseAccessLevel(req.AccessLevel)
	}
	webhookURL := strings.TrimSpace(req.WebhookURL)
	if webhookURL == "" {
		webhookURL = s.defaultWebhookURL
	}

	chatbot := &models.Chatbot{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		WebhookURL:  webhookURL,
		IsActive:    true,
		AccessLevel: level,
		UserID:      userID,
	}
	if err := s.chatbotRepo.Create(db, chatbot); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return chatbot, nil
}

// Update - только владелец. Чужой чатбот выглядит как несуществующий.
func (s *ChatbotServiceImpl) Update(db *gorm.DB, userID, chatbotID string, req *dto.UpdateChatbotRequest) (*models.Chatbot, error) {
	if !validID(chatbotID) {
		return nil, apperrors.ErrChatbotNotFound
	}

	var result *models.Chatbot
	err := db.Transaction(func(tx *gorm.DB) error {
		chatbot, err := s.chatbotRepo.FindByID(tx, chatbotID)
		if err != nil {
			return err
		}
		if chatbot.UserID != userID {
			return repositories.ErrChatbotNotFound
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.WebhookURL != nil {
			updates["webhook_url"] = strings.TrimSpace(*req.WebhookURL)
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.AccessLevel != nil {
			level, _ := models.ParseAccessLevel(*req.AccessLevel)
			updates["access_level"] = level
		}
		if len(updates) > 0 {
			if err := s.chatbotRepo.Update(tx, chatbotID, updates); err != nil {
				return err
			}
		}

		result, err = s.chatbotRepo.FindByID(tx, chatbotID)
		return err
	})
	if err != nil {
		return nil, handleChatbotError(err)
	}
	return result, nil
}

func handleChatbotError(err error) error {
	if errors.Is(err, repositories.ErrChatbotNotFound) {
		return apperrors.ErrChatbotNotFound
	}
	return apperrors.InternalError(err)
}
