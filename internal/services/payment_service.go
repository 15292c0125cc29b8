package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Типы событий платежного провайдера
const (
	PaymentEventActivated = "subscription.activated"
	PaymentEventCanceled  = "subscription.canceled"
)

const signaturePrefix = "sha256="

type PaymentService interface {
	// VerifySignature проверяет HMAC-SHA256 тела запроса (заголовок "sha256=<hex>")
	VerifySignature(rawBody []byte, signature string) error
	HandleEvent(db *gorm.DB, rawBody []byte, event *dto.PaymentWebhookEvent) (*dto.PaymentWebhookResponse, error)
}

type PaymentServiceImpl struct {
	secret    []byte
	userRepo  repositories.UserRepository
	eventRepo repositories.PaymentEventRepository
	mailer    Mailer
	now       func() time.Time
}

func NewPaymentService(
	secret string,
	userRepo repositories.UserRepository,
	eventRepo repositories.PaymentEventRepository,
	mailer Mailer,
) PaymentService {
	return &PaymentServiceImpl{
		secret:    []byte(strings.TrimSpace(secret)),
		userRepo:  userRepo,
		eventRepo: eventRepo,
		mailer:    mailer,
		now:       time.Now,
	}
}

func (s *PaymentServiceImpl) VerifySignature(rawBody []byte, signature string) error {
	if len(s.secret) == 0 {
		logger.Warn("Payment webhook rejected: secret is not configured")
		return apperrors.ErrInvalidSignature
	}

	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, signaturePrefix) {
		return apperrors.ErrInvalidSignature
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return apperrors.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(rawBody)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// HandleEvent применяет событие один раз: повтор с тем же id ничего не меняет
func (s *PaymentServiceImpl) HandleEvent(db *gorm.DB, rawBody []byte, event *dto.PaymentWebhookEvent) (*dto.PaymentWebhookResponse, error) {
	var (
		user      *models.User
		duplicate bool
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		err := s.eventRepo.Record(tx, &models.PaymentEvent{
			EventID: event.ID,
			Type:    event.Type,
			Email:   strings.ToLower(event.Data.Email),
			Payload: datatypes.JSON(rawBody),
		})
		if errors.Is(err, repositories.ErrEventAlreadySeen) {
			duplicate = true
			return nil
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		switch event.Type {
		case PaymentEventActivated:
			updates["subscription"] = models.SubscriptionPro
			if event.Data.PeriodEnd != nil {
				updates["subscription_ends_at"] = event.Data.PeriodEnd.UTC()
			} else {
				updates["subscription_ends_at"] = nil
			}
		case PaymentEventCanceled:
			updates["subscription"] = models.SubscriptionFree
			updates["subscription_ends_at"] = s.now().UTC()
		default:
			logger.Info("Ignoring payment event", "event_id", event.ID, "type", event.Type)
			return nil
		}

		user, err = s.userRepo.FindByEmail(tx, event.Data.Email)
		if err != nil {
			return err
		}
		return s.userRepo.Update(tx, user.ID, updates)
	})
	if err != nil {
		// событие не записано (откат), провайдер сможет повторить его
		return nil, handleUserError(err)
	}

	if duplicate {
		logger.Info("Duplicate payment event", "event_id", event.ID)
		return &dto.PaymentWebhookResponse{Received: true, Duplicate: true}, nil
	}

	if user != nil {
		logger.Info("Subscription changed by payment event", "event_id", event.ID, "type", event.Type, "user_id", user.ID)
		if event.Type == PaymentEventActivated {
			s.notifyActivated(db, user, event)
		}
	}
	return &dto.PaymentWebhookResponse{Received: true}, nil
}

func (s *PaymentServiceImpl) notifyActivated(db *gorm.DB, user *models.User, event *dto.PaymentWebhookEvent) {
	plan := event.Data.Plan
	if plan == "" {
		plan = string(models.SubscriptionPro)
	}
	periodEnd := "-"
	if event.Data.PeriodEnd != nil {
		periodEnd = event.Data.PeriodEnd.UTC().Format("2006-01-02")
	}
	s.mailer.Notify(db, email.TemplateSubscriptionActivated, user.Email, email.TemplateData{
		"name":      user.Name,
		"plan":      plan,
		"periodEnd": periodEnd,
	})
}
