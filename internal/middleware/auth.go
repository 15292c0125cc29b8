package middleware

import (
	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/pkg/apperrors"
	"chatsaas_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// IdentityMiddleware определяет субъект запроса и кладет его в контекст.
// Никогда не прерывает запрос: аноним - это тоже валидный результат.
func IdentityMiddleware(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolver.Resolve(GetDB(c), c.Request)
		if identity != nil {
			c.Set(string(contextkeys.IdentityContextKey), identity)
			ctx := logger.WithUserID(c.Request.Context(), identity.ID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireAuth - 401 для анонимного запроса
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).IsAuthenticated() {
			apperrors.AbortWithError(c, apperrors.ErrAuthenticationRequired)
			return
		}
		c.Next()
	}
}

// AdminGate - 401 для анонима, 403 для не-админа. Должен стоять перед любым admin хендлером.
func AdminGate(evaluator access.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if err := evaluator.RequireAdmin(identity); err != nil {
			logger.CtxWarn(c.Request.Context(), "Admin gate rejected request", "path", c.Request.URL.Path)
			apperrors.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// GetIdentity возвращает nil для анонимного запроса
func GetIdentity(c *gin.Context) *access.Identity {
	v, ok := c.Get(string(contextkeys.IdentityContextKey))
	if !ok {
		return nil
	}
	identity, _ := v.(*access.Identity)
	return identity
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	if identity := GetIdentity(c); identity != nil {
		return identity.ID
	}
	return ""
}
