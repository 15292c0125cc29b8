package repositories

import (
	"errors"
	"strings"

	"chatsaas_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPromotionNotFound  = errors.New("promotion not found")
	ErrPromotionExists    = errors.New("promotion code already exists")
	ErrPromotionExhausted = errors.New("promotion usage limit reached")
)

type PromotionRepository interface {
	Create(db *gorm.DB, promotion *models.Promotion) error
	FindByID(db *gorm.DB, id string) (*models.Promotion, error)
	FindByCode(db *gorm.DB, code string) (*models.Promotion, error)
	FindAll(db *gorm.DB) ([]models.Promotion, error)
	Update(db *gorm.DB, id string, updates map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
	// ConsumeUsage увеличивает used_count, только если лимит еще не исчерпан
	ConsumeUsage(db *gorm.DB, id string) error
}

type PromotionRepositoryImpl struct{}

func NewPromotionRepository() PromotionRepository {
	return &PromotionRepositoryImpl{}
}

// NormalizeCode - коды промо нечувствительны к регистру
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *PromotionRepositoryImpl) Create(db *gorm.DB, promotion *models.Promotion) error {
	promotion.Code = NormalizeCode(promotion.Code)
	if err := db.Create(promotion).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrPromotionExists
		}
		return err
	}
	return nil
}

func (r *PromotionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Promotion, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *PromotionRepositoryImpl) FindByCode(db *gorm.DB, code string) (*models.Promotion, error) {
	return r.findOne(db, "code = ?", NormalizeCode(code))
}

func (r *PromotionRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := db.Where(query, arg).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return &promotion, nil
}

func (r *PromotionRepositoryImpl) FindAll(db *gorm.DB) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := db.Order("created_at DESC").Find(&promotions).Error
	return promotions, err
}

func (r *PromotionRepositoryImpl) Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	if code, ok := updates["code"].(string); ok {
		updates["code"] = NormalizeCode(code)
	}
	result := db.Model(&models.Promotion{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if IsDuplicateKey(result.Error) {
			return ErrPromotionExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

func (r *PromotionRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Promotion{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

func (r *PromotionRepositoryImpl) ConsumeUsage(db *gorm.DB, id string) error {
	result := db.Model(&models.Promotion{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromotionExhausted
	}
	return nil
}
