package services

import (
	"context"
	"strings"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/relay"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AdminService interface {
	// Users
	ListUsers(db *gorm.DB, query *dto.UserListQuery) (*dto.UserListResponse, error)
	GetUser(db *gorm.DB, userID string) (*dto.UserResponse, error)
	UpdateUser(db *gorm.DB, adminID, userID string, req *dto.AdminUpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(db *gorm.DB, adminID, userID string) error

	// Stats
	GetStats(db *gorm.DB) (*dto.StatsResponse, error)

	// Webhooks
	ListWebhooks(db *gorm.DB) ([]*dto.WebhookResponse, error)
	UpdateWebhook(db *gorm.DB, chatbotID string, req *dto.UpdateWebhookRequest) (*dto.WebhookResponse, error)
	TestWebhook(ctx context.Context, db *gorm.DB, chatbotID string) (*dto.WebhookTestResponse, error)
}

type AdminServiceImpl struct {
	userRepo          repositories.UserRepository
	chatbotRepo       repositories.ChatbotRepository
	conversationRepo  repositories.ConversationRepository
	downloadRepo      repositories.DownloadRepository
	relayer           relay.Relayer
	defaultWebhookURL string
	now               func() time.Time
}

func NewAdminService(
	userRepo repositories.UserRepository,
	chatbotRepo repositories.ChatbotRepository,
	conversationRepo repositories.ConversationRepository,
	downloadRepo repositories.DownloadRepository,
	relayer relay.Relayer,
	defaultWebhookURL string,
) AdminService {
	return &AdminServiceImpl{
		userRepo:          userRepo,
		chatbotRepo:       chatbotRepo,
		conversationRepo:  conversationRepo,
		downloadRepo:      downloadRepo,
		relayer:           relayer,
		defaultWebhookURL: defaultWebhookURL,
		now:               time.Now,
	}
}

// ============================================
// Users
// ============================================

func (s *AdminServiceImpl) ListUsers(db *gorm.DB, query *dto.UserListQuery) (*dto.UserListResponse, error) {
	filter := repositories.UserFilter{
		Role:         models.UserRole(strings.ToUpper(query.Role)),
		Subscription: models.SubscriptionTier(strings.ToUpper(query.Subscription)),
		Search:       strings.TrimSpace(query.Search),
		Pagination:   repositories.Pagination{Page: query.Page, PageSize: query.PageSize},
	}

	users, total, err := s.userRepo.FindWithFilter(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	page := filter.Pagination.Normalized()
	resp := &dto.UserListResponse{
		Users:    make([]*dto.UserResponse, 0, len(users)),
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i], now))
	}
	return resp, nil
}

func (s *AdminServiceImpl) GetUser(db *gorm.DB, userID string) (*dto.UserResponse, error) {
	if !validID(userID) {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return dto.NewUserResponse(user, s.now()), nil
}

// UpdateUser: админ не может снять роль ADMIN с самого себя
func (s *AdminServiceImpl) UpdateUser(db *gorm.DB, adminID, userID string, req *dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	if !validID(userID) {
		return nil, apperrors.ErrUserNotFound
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		role := models.UserRole(strings.ToUpper(*req.Role))
		if userID == adminID && role != models.UserRoleAdmin {
			return nil, apperrors.ErrCannotModifySelf
		}
		updates["role"] = role
	}
	if req.Subscription != nil {
		updates["subscription"] = models.SubscriptionTier(strings.ToUpper(*req.Subscription))
	}
	if req.ClearSubscriptionEnd {
		updates["subscription_ends_at"] = nil
	} else if req.SubscriptionEndsAt != nil {
		updates["subscription_ends_at"] = req.SubscriptionEndsAt.UTC()
	}
	if req.WhatsappNumber != nil {
		updates["whatsapp_number"] = *req.WhatsappNumber
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(db, userID, updates); err != nil {
			return nil, handleUserError(err)
		}
		logger.Info("User updated by admin", "admin_id", adminID, "user_id", userID)
	}
	return s.GetUser(db, userID)
}

// DeleteUser - каскадное удаление (диалоги, сообщения, чатботы, сессии); загрузки остаются без владельца
func (s *AdminServiceImpl) DeleteUser(db *gorm.DB, adminID, userID string) error {
	if userID == adminID {
		return apperrors.ErrCannotModifySelf
	}
	if !validID(userID) {
		return apperrors.ErrUserNotFound
	}
	if err := s.userRepo.Delete(db, userID); err != nil {
		return handleUserError(err)
	}
	logger.Info("User deleted by admin", "admin_id", adminID, "user_id", userID)
	return nil
}

// ============================================
// Stats
// ============================================

func (s *AdminServiceImpl) GetStats(db *gorm.DB) (*dto.StatsResponse, error) {
	var stats dto.StatsResponse
	var err error

	if stats.Users, err = s.userRepo.CountAll(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.ProUsers, err = s.userRepo.CountActivePro(db, s.now().UTC()); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.Conversations, err = s.conversationRepo.CountConversations(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.Messages, err = s.conversationRepo.CountMessages(db); err != nil {
		return nil, apperrors.InternalError(err)
	}

	downloads, err := s.downloadRepo.GetStats(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	stats.Downloads = downloads.Total
	stats.TotalDownloads = downloads.TotalDownloads

	return &stats, nil
}

// ============================================
// Webhooks
// ============================================

func (s *AdminServiceImpl) ListWebhooks(db *gorm.DB) ([]*dto.WebhookResponse, error) {
	chatbots, err := s.chatbotRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make([]*dto.WebhookResponse, 0, len(chatbots))
	for i := range chatbots {
		result = append(result, newWebhookResponse(&chatbots[i]))
	}
	return result, nil
}

func (s *AdminServiceImpl) UpdateWebhook(db *gorm.DB, chatbotID string, req *dto.UpdateWebhookRequest) (*dto.WebhookResponse, error) {
	if !validID(chatbotID) {
		return nil, apperrors.ErrChatbotNotFound
	}

	updates := map[string]interface{}{}
	if req.WebhookURL != nil {
		updates["webhook_url"] = strings.TrimSpace(*req.WebhookURL)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.chatbotRepo.Update(db, chatbotID, updates); err != nil {
			return nil, handleChatbotError(err)
		}
	}

	chatbot, err := s.chatbotRepo.FindByID(db, chatbotID)
	if err != nil {
		return nil, handleChatbotError(err)
	}
	return newWebhookResponse(chatbot), nil
}

// TestWebhook - одна тестовая отправка. Недоступность вебхука - это результат, а не ошибка.
func (s *AdminServiceImpl) TestWebhook(ctx context.Context, db *gorm.DB, chatbotID string) (*dto.WebhookTestResponse, error) {
	if !validID(chatbotID) {
		return nil, apperrors.ErrChatbotNotFound
	}
	chatbot, err := s.chatbotRepo.FindByID(db, chatbotID)
	if err != nil {
		return nil, handleChatbotError(err)
	}

	webhookURL := chatbot.WebhookURL
	if webhookURL == "" {
		webhookURL = s.defaultWebhookURL
	}
	if webhookURL == "" {
		return &dto.WebhookTestResponse{Reachable: false, Error: "webhook url is not configured"}, nil
	}

	status, err := s.relayer.Ping(ctx, webhookURL)
	if err != nil {
		logger.CtxWarn(ctx, "Webhook test failed", "chatbot_id", chatbotID, "error", err.Error())
		return &dto.WebhookTestResponse{Reachable: false, Error: err.Error()}, nil
	}
	return &dto.WebhookTestResponse{
		Reachable:  status >= 200 && status < 300,
		StatusCode: status,
	}, nil
}

func newWebhookResponse(c *models.Chatbot) *dto.WebhookResponse {
	return &dto.WebhookResponse{
		ChatbotID:  c.ID,
		Name:       c.Name,
		WebhookURL: c.WebhookURL,
		IsActive:   c.IsActive,
		OwnerID:    c.UserID,
	}
}
