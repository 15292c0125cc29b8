package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthConfig - параметры Google OAuth. AuthURL/TokenURL/UserInfoURL пустые = Google по умолчанию.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	SessionTTL   time.Duration
}

type OAuthService interface {
	Enabled() bool
	AuthCodeURL(state string) string
	// Callback обменивает code на токен, читает профиль и создает серверную сессию
	Callback(ctx context.Context, db *gorm.DB, code string) (*dto.AuthResult, error)
}

type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type OAuthServiceImpl struct {
	oauth       *oauth2.Config
	userInfoURL string
	sessionTTL  time.Duration
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	tokens      *auth.TokenManager
	now         func() time.Time
}

func NewOAuthService(
	cfg OAuthConfig,
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	tokens *auth.TokenManager,
) OAuthService {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}

	return &OAuthServiceImpl{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		sessionTTL:  sessionTTL,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		now:         time.Now,
	}
}

func (s *OAuthServiceImpl) Enabled() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != ""
}

func (s *OAuthServiceImpl) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (s *OAuthServiceImpl) Callback(ctx context.Context, db *gorm.DB, code string) (*dto.AuthResult, error) {
	if !s.Enabled() {
		return nil, apperrors.ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, apperrors.NewBadRequestError("Missing authorization code")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		logger.CtxWithError(ctx, "OAuth code exchange failed", err)
		return nil, apperrors.ErrOAuthFailed.WithError(err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to fetch Google profile", err)
		return nil, apperrors.ErrOAuthFailed.WithError(err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, apperrors.ErrOAuthFailed
	}

	var (
		user         *models.User
		sessionToken string
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.upsertUser(tx, profile)
		if err != nil {
			return err
		}

		sessionToken, err = auth.RandomToken(32)
		if err != nil {
			return err
		}
		return s.sessionRepo.Create(tx, &models.Session{
			Token:     sessionToken,
			UserID:    user.ID,
			ExpiresAt: s.now().UTC().Add(s.sessionTTL),
		})
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	jwtToken, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User signed in with Google", "user_id", user.ID)
	return &dto.AuthResult{
		User:         dto.NewUserResponse(user, s.now()),
		Token:        jwtToken,
		SessionToken: sessionToken,
	}, nil
}

func (s *OAuthServiceImpl) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := s.oauth.Client(ctx, token)

	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &profile, nil
}

// upsertUser: сначала по google id, затем по email (привязка к существующему аккаунту), иначе новый
func (s *OAuthServiceImpl) upsertUser(tx *gorm.DB, profile *googleProfile) (*models.User, error) {
	now := s.now().UTC()

	user, err := s.userRepo.FindByGoogleID(tx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	user, err = s.userRepo.FindByEmail(tx, profile.Email)
	switch {
	case err == nil:
		updates := map[string]interface{}{"google_id": profile.ID}
		if user.EmailVerified == nil {
			updates["email_verified"] = now
			user.EmailVerified = &now
		}
		if user.Image == "" && profile.Picture != "" {
			updates["image"] = profile.Picture
			user.Image = profile.Picture
		}
		if err := s.userRepo.Update(tx, user.ID, updates); err != nil {
			return nil, err
		}
		user.GoogleID = &profile.ID
		return user, nil
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, err
	}

	googleID := profile.ID
	user = &models.User{
		Email:         profile.Email,
		Name:          profile.Name,
		Image:         profile.Picture,
		Role:          models.UserRoleUser,
		Subscription:  models.SubscriptionFree,
		EmailVerified: &now,
		GoogleID:      &googleID,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, err
	}
	return user, nil
}
