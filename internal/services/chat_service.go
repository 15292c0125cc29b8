package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/relay"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const conversationTitleRunes = 60

// ChatConfig - настройки релея сообщений
type ChatConfig struct {
	DefaultWebhookURL string
	ApologyMessage    string
	HistoryLimit      int
}

type ChatService interface {
	// SendMessage сохраняет ход пользователя, пересылает его на вебхук и сохраняет ответ.
	// Сбой вебхука не является ошибкой: сохраняется и возвращается извинение.
	SendMessage(ctx context.Context, db *gorm.DB, identity *access.Identity, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ListConversations(db *gorm.DB, userID, chatbotID string) ([]*dto.ConversationResponse, error)
	ListMessages(db *gorm.DB, userID, conversationID string) ([]*dto.MessageResponse, error)
}

type ChatServiceImpl struct {
	chatbotRepo      repositories.ChatbotRepository
	conversationRepo repositories.ConversationRepository
	evaluator        access.Evaluator
	relayer          relay.Relayer
	cfg              ChatConfig
	locks            *conversationLocks
	now              func() time.Time
}

func NewChatService(
	chatbotRepo repositories.ChatbotRepository,
	conversationRepo repositories.ConversationRepository,
	evaluator access.Evaluator,
	relayer relay.Relayer,
	cfg ChatConfig,
) ChatService {
	return &ChatServiceImpl{
		chatbotRepo:      chatbotRepo,
		conversationRepo: conversationRepo,
		evaluator:        evaluator,
		relayer:          relayer,
		cfg:              cfg,
		locks:            newConversationLocks(),
		now:              time.Now,
	}
}

func (s *ChatServiceImpl) SendMessage(ctx context.Context, db *gorm.DB, identity *access.Identity, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewBadRequestError("Message must not be blank")
	}
	chatbot, err := s.loadChatbot(db, req.ChatbotID, identity)
	if err != nil {
		return nil, err
	}

	owner := conversationOwner{}
	if identity.IsAuthenticated() {
		id := identity.ID
		owner.userID = &id
	} else if req.ClientKey != "" {
		hash := hashClientKey(req.ClientKey)
		owner.clientKeyHash = &hash
	}

	// известный диалог блокируется на весь ход: user append -> relay -> assistant append
	conversationID := ""
	if req.ConversationID != "" && validID(req.ConversationID) {
		conversationID = req.ConversationID
		unlock := s.locks.Lock(conversationID)
		defer unlock()
	}

	conversation, userMessage, err := s.appendUserTurn(db, conversationID, chatbot.ID, owner, req.Message)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to store user message", err, "chatbot_id", chatbot.ID)
		return nil, apperrors.InternalError(err)
	}

	reply := s.relay(ctx, db, chatbot, conversation, userMessage, identity)

	assistantMessage, err := s.appendAssistantTurn(db, conversation.ID, reply)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to store assistant message", err, "conversation_id", conversation.ID)
		return nil, apperrors.InternalError(err)
	}

	return &dto.ChatResponse{
		Success:        true,
		ConversationID: conversation.ID,
		MessageID:      assistantMessage.ID,
		Content:        assistantMessage.Content,
	}, nil
}

func (s *ChatServiceImpl) loadChatbot(db *gorm.DB, chatbotID string, identity *access.Identity) (*models.Chatbot, error) {
	if !validID(chatbotID) {
		return nil, apperrors.ErrChatbotNotFound
	}
	chatbot, err := s.chatbotRepo.FindByID(db, chatbotID)
	if err != nil {
		return nil, handleChatbotError(err)
	}
	if !chatbot.IsActive {
		return nil, apperrors.ErrChatbotInactive
	}
	if err := s.evaluator.Authorize(chatbot.AccessLevel, identity); err != nil {
		return nil, err
	}
	return chatbot, nil
}

// appendUserTurn переиспользует диалог только для той же пары (владелец, чатбот),
// иначе создает новый. Строка диалога блокируется до конца транзакции.
func (s *ChatServiceImpl) appendUserTurn(db *gorm.DB, conversationID, chatbotID string, owner conversationOwner, text string) (*models.Conversation, *models.Message, error) {
	var (
		conversation *models.Conversation
		message      *models.Message
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		if conversationID != "" {
			existing, err := s.conversationRepo.FindByIDForUpdate(tx, conversationID)
			switch {
			case err == nil && owner.owns(existing, chatbotID):
				conversation = existing
			case err != nil && !errors.Is(err, repositories.ErrConversationNotFound):
				return err
			}
		}

		if conversation == nil {
			title := truncateRunes(text, conversationTitleRunes)
			conversation = &models.Conversation{
				ChatbotID:     chatbotID,
				UserID:        owner.userID,
				ClientKeyHash: owner.clientKeyHash,
				Title:         &title,
			}
			if err := s.conversationRepo.Create(tx, conversation); err != nil {
				return err
			}
		}

		var err error
		message, err = s.conversationRepo.AppendMessage(tx, conversation.ID, text, true)
		if err != nil {
			return err
		}
		return s.conversationRepo.Touch(tx, conversation.ID, s.now().UTC())
	})
	if err != nil {
		return nil, nil, err
	}
	return conversation, message, nil
}

func (s *ChatServiceImpl) appendAssistantTurn(db *gorm.DB, conversationID, text string) (*models.Message, error) {
	var message *models.Message
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.conversationRepo.FindByIDForUpdate(tx, conversationID); err != nil {
			return err
		}
		var err error
		message, err = s.conversationRepo.AppendMessage(tx, conversationID, text, false)
		if err != nil {
			return err
		}
		return s.conversationRepo.Touch(tx, conversationID, s.now().UTC())
	})
	return message, err
}

// relay всегда возвращает текст для ассистента: ответ вебхука или извинение
func (s *ChatServiceImpl) relay(ctx context.Context, db *gorm.DB, chatbot *models.Chatbot, conversation *models.Conversation, userMessage *models.Message, identity *access.Identity) string {
	webhookURL := chatbot.WebhookURL
	if webhookURL == "" {
		webhookURL = s.cfg.DefaultWebhookURL
	}

	payload := relay.Payload{
		Message:        userMessage.Content,
		ConversationID: conversation.ID,
		ChatbotID:      chatbot.ID,
		Timestamp:      s.now().UTC(),
		History:        s.history(db, conversation.ID, userMessage.ID),
	}
	if identity.IsAuthenticated() {
		payload.UserID = identity.ID
		payload.User = &relay.UserContext{
			Email:        identity.Email,
			Name:         identity.Name,
			Subscription: string(identity.Subscription),
		}
	}

	start := time.Now()
	reply, err := s.relayer.Relay(ctx, webhookURL, payload)
	logger.RelayLog(ctx, chatbot.ID, time.Since(start), err)
	if err != nil {
		return s.cfg.ApologyMessage
	}
	return reply
}

// history - последние сообщения диалога без текущего
func (s *ChatServiceImpl) history(db *gorm.DB, conversationID, currentMessageID string) []relay.HistoryItem {
	if s.cfg.HistoryLimit <= 0 {
		return nil
	}
	messages, err := s.conversationRepo.FindRecentMessages(db, conversationID, s.cfg.HistoryLimit+1)
	if err != nil {
		logger.Warn("Failed to load conversation history", "conversation_id", conversationID, "error", err.Error())
		return nil
	}

	items := make([]relay.HistoryItem, 0, len(messages))
	for _, m := range messages {
		if m.ID == currentMessageID {
			continue
		}
		role := "assistant"
		if m.IsFromUser {
			role = "user"
		}
		items = append(items, relay.HistoryItem{Role: role, Content: m.Content, At: m.CreatedAt})
	}
	if len(items) > s.cfg.HistoryLimit {
		items = items[len(items)-s.cfg.HistoryLimit:]
	}
	return items
}

func (s *ChatServiceImpl) ListConversations(db *gorm.DB, userID, chatbotID string) ([]*dto.ConversationResponse, error) {
	if chatbotID != "" && !validID(chatbotID) {
		return []*dto.ConversationResponse{}, nil
	}
	conversations, err := s.conversationRepo.FindByUser(db, userID, chatbotID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		result = append(result, dto.NewConversationResponse(&conversations[i]))
	}
	return result, nil
}

// ListMessages - чужой диалог отдается как 404
func (s *ChatServiceImpl) ListMessages(db *gorm.DB, userID, conversationID string) ([]*dto.MessageResponse, error) {
	if !validID(conversationID) {
		return nil, apperrors.ErrConversationNotFound
	}
	conversation, err := s.conversationRepo.FindByID(db, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if conversation.UserID == nil || *conversation.UserID != userID {
		return nil, apperrors.ErrConversationNotFound
	}

	messages, err := s.conversationRepo.FindMessages(db, conversationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make([]*dto.MessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, dto.NewMessageResponse(&messages[i]))
	}
	return result, nil
}

// conversationOwner - пользователь либо анонимный клиент с ключом из cookie.
// Аноним без ключа не владеет ничем: каждый его ход начинает новый диалог.
type conversationOwner struct {
	userID        *string
	clientKeyHash *string
}

func (o conversationOwner) owns(c *models.Conversation, chatbotID string) bool {
	if c.ChatbotID != chatbotID {
		return false
	}
	switch {
	case o.userID != nil:
		return c.UserID != nil && *c.UserID == *o.userID
	case o.clientKeyHash != nil:
		return c.UserID == nil && c.ClientKeyHash != nil && *c.ClientKeyHash == *o.clientKeyHash
	default:
		return false
	}
}

func hashClientKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
