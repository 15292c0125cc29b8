package services

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResult, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResult, error)
	Logout(db *gorm.DB, sessionToken string) error
	VerifyEmail(db *gorm.DB, token string) error
	ResendVerification(db *gorm.DB, userID string) error
	GetMe(db *gorm.DB, userID string) (*dto.UserResponse, error)
	UpdateMe(db *gorm.DB, userID string, req *dto.UpdateMeRequest) (*dto.UserResponse, error)
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	tokens      *auth.TokenManager
	mailer      Mailer
	siteURL     string
	now         func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	tokens *auth.TokenManager,
	mailer Mailer,
	siteURL string,
) AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		mailer:      mailer,
		siteURL:     strings.TrimRight(siteURL, "/"),
		now:         time.Now,
	}
}

// Register - регистрация по email/паролю. Письма уходят в фоне и не влияют на результат.
func (s *AuthServiceImpl) Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResult, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	verificationToken, err := auth.RandomToken(32)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:             strings.TrimSpace(req.Email),
		PasswordHash:      &hash,
		Name:              strings.TrimSpace(req.Name),
		Role:              models.UserRoleUser,
		Subscription:      models.SubscriptionFree,
		VerificationToken: verificationToken,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	s.mailer.Notify(db, email.TemplateWelcome, user.Email, email.TemplateData{"name": user.Name})
	s.sendVerification(db, user)

	return s.issue(user)
}

// Login - вход по паролю. OAuth-пользователь без пароля получает тот же ответ, что и при неверном пароле.
func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if user.PasswordHash == nil || !auth.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthServiceImpl) Logout(db *gorm.DB, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(db, sessionToken); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) VerifyEmail(db *gorm.DB, token string) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByVerificationToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}

	err = s.userRepo.Update(db, user.ID, map[string]interface{}{
		"email_verified":     s.now().UTC(),
		"verification_token": "",
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) ResendVerification(db *gorm.DB, userID string) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return handleUserError(err)
	}
	if user.EmailVerified != nil {
		return apperrors.ErrInvalidOperation("auth", "Email is already verified")
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.Update(db, user.ID, map[string]interface{}{"verification_token": token}); err != nil {
		return apperrors.InternalError(err)
	}
	user.VerificationToken = token

	s.sendVerification(db, user)
	return nil
}

func (s *AuthServiceImpl) GetMe(db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return dto.NewUserResponse(user, s.now()), nil
}

func (s *AuthServiceImpl) UpdateMe(db *gorm.DB, userID string, req *dto.UpdateMeRequest) (*dto.UserResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.WhatsappNumber != nil {
		updates["whatsapp_number"] = *req.WhatsappNumber
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(db, userID, updates); err != nil {
			return nil, handleUserError(err)
		}
	}
	return s.GetMe(db, userID)
}

func (s *AuthServiceImpl) issue(user *models.User) (*dto.AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResult{User: dto.NewUserResponse(user, s.now()), Token: token}, nil
}

func (s *AuthServiceImpl) sendVerification(db *gorm.DB, user *models.User) {
	link := s.siteURL + "/verify-email?token=" + url.QueryEscape(user.VerificationToken)
	if !s.mailer.Notify(db, email.TemplateEmailVerification, user.Email, email.TemplateData{
		"name":            user.Name,
		"verificationUrl": link,
	}) {
		logger.Warn("Verification email was not queued", "user_id", user.ID)
	}
}

func handleUserError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrEmailAlreadyExists
	default:
		return apperrors.InternalError(err)
	}
}
