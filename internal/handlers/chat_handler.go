package handlers

import (
	"net/http"

	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	*BaseHandler
	chatService    services.ChatService
	chatbotService services.ChatbotService
	cookies        CookieConfig
}

func NewChatHandler(base *BaseHandler, chatService services.ChatService, chatbotService services.ChatbotService, cookies CookieConfig) *ChatHandler {
	return &ChatHandler{
		BaseHandler:    base,
		chatService:    chatService,
		chatbotService: chatbotService,
		cookies:        cookies,
	}
}

// SendMessage - POST /chat. Аутентификация не обязательна.
// Сбой вебхука приходит как обычный ответ с текстом извинения.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.ChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	identity := h.GetIdentity(c)
	if !identity.IsAuthenticated() {
		key, cookie := h.cookies.chatClientKey(c.Request)
		if cookie != nil {
			http.SetCookie(c.Writer, cookie)
		}
		req.ClientKey = key
	}

	resp, err := h.chatService.SendMessage(c.Request.Context(), h.GetDB(c), identity, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) ListChatbots(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	chatbots, err := h.chatbotService.ListOwn(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatbots)
}

func (h *ChatHandler) CreateChatbot(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreateChatbotRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	chatbot, err := h.chatbotService.Create(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chatbot)
}

func (h *ChatHandler) UpdateChatbot(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateChatbotRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	chatbot, err := h.chatbotService.Update(h.GetDB(c), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatbot)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	conversations, err := h.chatService.ListConversations(h.GetDB(c), userID, c.Query("chatbotId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	messages, err := h.chatService.ListMessages(h.GetDB(c), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
