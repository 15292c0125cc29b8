package services

import (
	"errors"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Причины отказа промокода
const (
	PromotionReasonNotFound  = "not_found"
	PromotionReasonExhausted = "usage_limit_reached"
	PromotionReasonInactive  = "inactive"
	PromotionReasonExpired   = "expired"
)

type PromotionService interface {
	Validate(db *gorm.DB, code string) (*dto.PromotionValidationResponse, error)
	// Redeem атомарно использует код; недействительный код - 400
	Redeem(db *gorm.DB, userID, code string) (*dto.PromotionValidationResponse, error)

	// Admin operations
	List(db *gorm.DB) ([]models.Promotion, error)
	Create(db *gorm.DB, req *dto.CreatePromotionRequest) (*models.Promotion, error)
	Update(db *gorm.DB, id string, req *dto.UpdatePromotionRequest) (*models.Promotion, error)
	Delete(db *gorm.DB, id string) error
}

type PromotionServiceImpl struct {
	promotionRepo repositories.PromotionRepository
	now           func() time.Time
}

func NewPromotionService(promotionRepo repositories.PromotionRepository) PromotionService {
	return &PromotionServiceImpl{
		promotionRepo: promotionRepo,
		now:           time.Now,
	}
}

// rejectReason: исчерпанный лимит проверяется первым и отклоняет код независимо от isActive/expiresAt
func (s *PromotionServiceImpl) rejectReason(p *models.Promotion) string {
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return PromotionReasonExhausted
	}
	if !p.IsActive {
		return PromotionReasonInactive
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(s.now()) {
		return PromotionReasonExpired
	}
	return ""
}

func (s *PromotionServiceImpl) Validate(db *gorm.DB, code string) (*dto.PromotionValidationResponse, error) {
	normalized := repositories.NormalizeCode(code)
	resp := &dto.PromotionValidationResponse{Code: normalized}

	promotion, err := s.promotionRepo.FindByCode(db, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrPromotionNotFound) {
			resp.Reason = PromotionReasonNotFound
			return resp, nil
		}
		return nil, apperrors.InternalError(err)
	}

	if reason := s.rejectReason(promotion); reason != "" {
		resp.Reason = reason
		return resp, nil
	}

	resp.Valid = true
	resp.DiscountType = promotion.DiscountType
	resp.DiscountValue = promotion.DiscountValue
	return resp, nil
}

func (s *PromotionServiceImpl) Redeem(db *gorm.DB, userID, code string) (*dto.PromotionValidationResponse, error) {
	var resp *dto.PromotionValidationResponse
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		resp, err = s.Validate(tx, code)
		if err != nil {
			return err
		}
		if !resp.Valid {
			return apperrors.ErrPromotionInvalid.WithDetails(map[string]string{"reason": resp.Reason})
		}

		promotion, err := s.promotionRepo.FindByCode(tx, code)
		if err != nil {
			return err
		}
		// условный UPDATE: параллельный запрос мог забрать последнее использование
		if err := s.promotionRepo.ConsumeUsage(tx, promotion.ID); err != nil {
			if errors.Is(err, repositories.ErrPromotionExhausted) {
				return apperrors.ErrPromotionInvalid.WithDetails(map[string]string{"reason": PromotionReasonExhausted})
			}
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.InternalError(err)
	}

	logger.Info("Promotion redeemed", "user_id", userID, "code", resp.Code)
	return resp, nil
}

func (s *PromotionServiceImpl) List(db *gorm.DB) ([]models.Promotion, error) {
	promotions, err := s.promotionRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return promotions, nil
}

func (s *PromotionServiceImpl) Create(db *gorm.DB, req *dto.CreatePromotionRequest) (*models.Promotion, error) {
	if err := validateDiscount(models.DiscountType(req.DiscountType), req.DiscountValue); err != nil {
		return nil, err
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	promotion := &models.Promotion{
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  models.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		UsageLimit:    req.UsageLimit,
		ExpiresAt:     req.ExpiresAt,
		IsActive:      isActive,
	}
	if err := s.promotionRepo.Create(db, promotion); err != nil {
		return nil, handlePromotionError(err)
	}
	return promotion, nil
}

func (s *PromotionServiceImpl) Update(db *gorm.DB, id string, req *dto.UpdatePromotionRequest) (*models.Promotion, error) {
	if !validID(id) {
		return nil, apperrors.ErrPromotionNotFound
	}

	var result *models.Promotion
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := s.promotionRepo.FindByID(tx, id)
		if err != nil {
			return err
		}

		discountType, discountValue := current.DiscountType, current.DiscountValue
		updates := map[string]interface{}{}
		if req.Code != nil {
			updates["code"] = *req.Code
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.DiscountType != nil {
			discountType = models.DiscountType(*req.DiscountType)
			updates["discount_type"] = discountType
		}
		if req.DiscountValue != nil {
			discountValue = *req.DiscountValue
			updates["discount_value"] = discountValue
		}
		if req.UsageLimit != nil {
			updates["usage_limit"] = *req.UsageLimit
		}
		if req.ExpiresAt != nil {
			updates["expires_at"] = req.ExpiresAt.UTC()
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}

		if err := validateDiscount(discountType, discountValue); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := s.promotionRepo.Update(tx, id, updates); err != nil {
				return err
			}
		}
		result, err = s.promotionRepo.FindByID(tx, id)
		return err
	})
	if err != nil {
		return nil, handlePromotionError(err)
	}
	return result, nil
}

func (s *PromotionServiceImpl) Delete(db *gorm.DB, id string) error {
	if !validID(id) {
		return apperrors.ErrPromotionNotFound
	}
	if err := s.promotionRepo.Delete(db, id); err != nil {
		return handlePromotionError(err)
	}
	return nil
}

func validateDiscount(discountType models.DiscountType, value float64) error {
	if !discountType.Valid() {
		return apperrors.NewBadRequestError("Invalid discount type")
	}
	if discountType == models.DiscountPercentage && value > 100 {
		return apperrors.NewBadRequestError("Percentage discount cannot exceed 100")
	}
	return nil
}

func handlePromotionError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrPromotionNotFound):
		return apperrors.ErrPromotionNotFound
	case errors.Is(err, repositories.ErrPromotionExists):
		return apperrors.ErrDuplicate(err, "promotion", "Promotion code already exists")
	default:
		return apperrors.InternalError(err)
	}
}
