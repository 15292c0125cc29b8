package handlers

import (
	"crypto/subtle"
	"net/http"

	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService  services.AuthService
	oauthService services.OAuthService
	cookies      CookieConfig
	siteURL      string
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, oauthService services.OAuthService, cookies CookieConfig, siteURL string) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  base,
		authService:  authService,
		oauthService: oauthService,
		cookies:      cookies,
		siteURL:      siteURL,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.Register(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.cookies.set(c.Writer, h.cookies.TokenName, result.Token, h.cookies.TokenTTL)
	c.JSON(http.StatusCreated, gin.H{
		"user":    result.User,
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.Login(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.cookies.set(c.Writer, h.cookies.TokenName, result.Token, h.cookies.TokenTTL)
	c.JSON(http.StatusOK, gin.H{"user": result.User})
}

// Logout очищает обе cookie и удаляет серверную сессию
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionToken, _ := c.Cookie(h.cookies.SessionName)

	if err := h.authService.Logout(h.GetDB(c), sessionToken); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.cookies.clear(c.Writer, h.cookies.TokenName)
	h.cookies.clear(c.Writer, h.cookies.SessionName)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.authService.VerifyEmail(h.GetDB(c), c.Query("token")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	if err := h.authService.ResendVerification(h.GetDB(c), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

// GoogleLogin - редирект на страницу согласия Google; state хранится в cookie
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.oauthService.Enabled() {
		h.HandleServiceError(c, apperrors.ErrOAuthNotConfigured)
		return
	}

	state, err := auth.RandomToken(16)
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	h.cookies.set(c.Writer, h.cookies.StateName, state, oauthStateTTL)
	c.Redirect(http.StatusTemporaryRedirect, h.oauthService.AuthCodeURL(state))
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	ctx := c.Request.Context()

	expected, _ := c.Cookie(h.cookies.StateName)
	state := c.Query("state")
	h.cookies.clear(c.Writer, h.cookies.StateName)

	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		logger.CtxWarn(ctx, "OAuth state mismatch")
		h.HandleServiceError(c, apperrors.NewBadRequestError("Invalid OAuth state"))
		return
	}

	result, err := h.oauthService.Callback(ctx, h.GetDB(c), c.Query("code"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.cookies.set(c.Writer, h.cookies.SessionName, result.SessionToken, h.cookies.SessionTTL)
	h.cookies.set(c.Writer, h.cookies.TokenName, result.Token, h.cookies.TokenTTL)
	c.Redirect(http.StatusFound, h.siteURL)
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.GetMe(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateMeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateMe(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
