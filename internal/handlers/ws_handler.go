package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/middleware"
	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/validator"
	"chatsaas_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 * 1024
	wsSendBuffer     = 16
)

// IncomingWSMessage - конверт входящего сообщения
type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// OutgoingWSMessage - ответ клиенту: type=message с ChatResponse или type=error
type OutgoingWSMessage struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error interface{} `json:"error,omitempty"`
}

// IdentityLoader перечитывает субъект по id (реализует auth.Resolver)
type IdentityLoader interface {
	Load(ctx context.Context, db *gorm.DB, userID string) *access.Identity
}

// WSHandler - /ws/chat: тот же контракт, что и POST /chat, поверх websocket
type WSHandler struct {
	*BaseHandler
	chatService services.ChatService
	identities  IdentityLoader
	limiter     *middleware.RateLimiter
	cookies     CookieConfig
	upgrader    websocket.Upgrader
}

func NewWSHandler(base *BaseHandler, chatService services.ChatService, identities IdentityLoader, limiter *middleware.RateLimiter, cookies CookieConfig, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		BaseHandler: base,
		chatService: chatService,
		identities:  identities,
		limiter:     limiter,
		cookies:     cookies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// wsClient хранит только id пользователя: роль и подписка перечитываются на каждое сообщение
type wsClient struct {
	conn      *websocket.Conn
	send      chan OutgoingWSMessage
	db        *gorm.DB
	userID    string
	clientKey string
	rateKey   string
}

func (h *WSHandler) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()

	client := &wsClient{
		send:    make(chan OutgoingWSMessage, wsSendBuffer),
		db:      h.GetDB(c),
		rateKey: middleware.RateLimitKey(c),
	}

	var header http.Header
	if identity := h.GetIdentity(c); identity.IsAuthenticated() {
		client.userID = identity.ID
	} else {
		key, cookie := h.cookies.chatClientKey(c.Request)
		client.clientKey = key
		if cookie != nil {
			header = http.Header{"Set-Cookie": []string{cookie.String()}}
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		logger.CtxWarn(ctx, "WebSocket upgrade failed", "error", err.Error())
		return
	}
	client.conn = conn
	logger.CtxDebug(ctx, "WebSocket connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(client)
	}()

	// readPump блокирует хендлер: контекст запроса живет, пока жив сокет
	h.readPump(ctx, client, done)
	close(client.send)
	<-done
	logger.CtxDebug(ctx, "WebSocket disconnected")
}

// push не блокируется навсегда, если writePump уже завершился
func (c *wsClient) push(msg OutgoingWSMessage, done <-chan struct{}) bool {
	select {
	case c.send <- msg:
		return true
	case <-done:
		return false
	}
}

func (h *WSHandler) readPump(ctx context.Context, client *wsClient, done <-chan struct{}) {
	client.conn.SetReadLimit(wsMaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(ctx, "WebSocket read error", "error", err.Error())
			}
			return
		}

		var reply OutgoingWSMessage
		var msg IncomingWSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			reply = errorMessage(apperrors.NewBadRequestError("Invalid message format"))
		} else {
			reply = h.handleMessage(ctx, client, msg)
		}
		if !client.push(reply, done) {
			return
		}
	}
}

func (h *WSHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleMessage(ctx context.Context, client *wsClient, msg IncomingWSMessage) OutgoingWSMessage {
	switch msg.Action {
	case "", "send_message":
		var req dto.ChatRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return errorMessage(apperrors.NewBadRequestError("Invalid send_message payload"))
		}
		if err := h.validator.Validate(&req); err != nil {
			if vErr, ok := err.(*validator.ValidationError); ok {
				return errorMessage(apperrors.ValidationError(vErr.Errors))
			}
			return errorMessage(apperrors.InternalError(err))
		}
		if h.limiter != nil && !h.limiter.Allow(client.rateKey) {
			return errorMessage(apperrors.ErrRateLimited)
		}

		req.ClientKey = client.clientKey

		resp, err := h.chatService.SendMessage(ctx, client.db, h.currentIdentity(ctx, client), &req)
		if err != nil {
			return errorMessage(err)
		}
		return OutgoingWSMessage{Type: "message", Data: resp}

	default:
		return errorMessage(apperrors.NewBadRequestError("Unknown action: " + msg.Action))
	}
}

// currentIdentity - свежая запись пользователя; удаленный пользователь становится анонимом
func (h *WSHandler) currentIdentity(ctx context.Context, client *wsClient) *access.Identity {
	if client.userID == "" {
		return nil
	}
	return h.identities.Load(ctx, client.db, client.userID)
}

func errorMessage(err error) OutgoingWSMessage {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalError(err)
	}
	return OutgoingWSMessage{Type: "error", Error: appErr}
}
