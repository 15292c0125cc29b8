package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/repositories"

	"gorm.io/gorm"
)

// Resolver определяет субъект запроса.
// Порядок: серверная сессия (session-token) -> подписанный auth-token (cookie или Bearer) -> аноним.
// Ошибки не пробрасываются: любой сбой дает анонима.
type Resolver struct {
	tokens        *TokenManager
	userRepo      repositories.UserRepository
	sessionRepo   repositories.SessionRepository
	sessionCookie string
	tokenCookie   string
	now           func() time.Time
}

func NewResolver(tokens *TokenManager, userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, sessionCookie, tokenCookie string) *Resolver {
	return &Resolver{
		tokens:        tokens,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		sessionCookie: sessionCookie,
		tokenCookie:   tokenCookie,
		now:           time.Now,
	}
}

// Resolve возвращает nil для анонимного запроса
func (r *Resolver) Resolve(db *gorm.DB, req *http.Request) *access.Identity {
	if userID := r.fromSession(db, req); userID != "" {
		if identity := r.Load(req.Context(), db, userID); identity != nil {
			return identity
		}
	}
	if userID := r.fromToken(req); userID != "" {
		return r.Load(req.Context(), db, userID)
	}
	return nil
}

func (r *Resolver) fromSession(db *gorm.DB, req *http.Request) string {
	cookie, err := req.Cookie(r.sessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	session, err := r.sessionRepo.FindValid(db, cookie.Value, r.now().UTC())
	if err != nil {
		return ""
	}
	return session.UserID
}

func (r *Resolver) fromToken(req *http.Request) string {
	raw := ""
	if cookie, err := req.Cookie(r.tokenCookie); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		if h := req.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if raw == "" {
		return ""
	}
	claims, err := r.tokens.Parse(raw)
	if err != nil {
		logger.CtxDebug(req.Context(), "Ignoring invalid auth token", "error", err.Error())
		return ""
	}
	return claims.UserID
}

// Load перечитывает пользователя, чтобы роль и подписка были актуальными.
// Удаленный пользователь дает nil (аноним).
func (r *Resolver) Load(ctx context.Context, db *gorm.DB, userID string) *access.Identity {
	user, err := r.userRepo.FindByID(db, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxWithError(ctx, "Failed to load user for identity", err, "user_id", userID)
		}
		return nil
	}
	return access.IdentityFromUser(user)
}
