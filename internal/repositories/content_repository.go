package repositories

import (
	"errors"

	"chatsaas_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTemplateNotFound   = errors.New("email template not found")
	ErrTemplateExists     = errors.New("email template already exists")
	ErrSiteConfigNotFound = errors.New("site config not found")
	ErrBlogPostNotFound   = errors.New("blog post not found")
	ErrBlogSlugExists     = errors.New("blog slug already exists")
	ErrEventAlreadySeen   = errors.New("payment event already processed")
)

// ============================================
// Email templates
// ============================================

type EmailTemplateRepository interface {
	Create(db *gorm.DB, tpl *models.EmailTemplate) error
	FindByID(db *gorm.DB, id string) (*models.EmailTemplate, error)
	FindActiveByName(db *gorm.DB, name string) (*models.EmailTemplate, error)
	FindAll(db *gorm.DB) ([]models.EmailTemplate, error)
	Update(db *gorm.DB, id string, updates map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
}

type EmailTemplateRepositoryImpl struct{}

func NewEmailTemplateRepository() EmailTemplateRepository {
	return &EmailTemplateRepositoryImpl{}
}

func (r *EmailTemplateRepositoryImpl) Create(db *gorm.DB, tpl *models.EmailTemplate) error {
	if err := db.Create(tpl).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrTemplateExists
		}
		return err
	}
	return nil
}

func (r *EmailTemplateRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := db.First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *EmailTemplateRepositoryImpl) FindActiveByName(db *gorm.DB, name string) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := db.Where("name = ? AND is_active = ?", name, true).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *EmailTemplateRepositoryImpl) FindAll(db *gorm.DB) ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	err := db.Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *EmailTemplateRepositoryImpl) Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.Model(&models.EmailTemplate{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if IsDuplicateKey(result.Error) {
			return ErrTemplateExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *EmailTemplateRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.EmailTemplate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// ============================================
// Site config
// ============================================

type SiteConfigRepository interface {
	Get(db *gorm.DB, key string) (*models.SiteConfig, error)
	List(db *gorm.DB, publicOnly bool) ([]models.SiteConfig, error)
	Upsert(db *gorm.DB, key string, value datatypes.JSON, isPublic bool) (*models.SiteConfig, error)
	Delete(db *gorm.DB, key string) error
}

type SiteConfigRepositoryImpl struct{}

func NewSiteConfigRepository() SiteConfigRepository {
	return &SiteConfigRepositoryImpl{}
}

func (r *SiteConfigRepositoryImpl) Get(db *gorm.DB, key string) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	if err := db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *SiteConfigRepositoryImpl) List(db *gorm.DB, publicOnly bool) ([]models.SiteConfig, error) {
	query := db.Model(&models.SiteConfig{})
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	var items []models.SiteConfig
	err := query.Order("config_key ASC").Find(&items).Error
	return items, err
}

func (r *SiteConfigRepositoryImpl) Upsert(db *gorm.DB, key string, value datatypes.JSON, isPublic bool) (*models.SiteConfig, error) {
	item := &models.SiteConfig{Key: key, Value: value, IsPublic: isPublic}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "is_public", "updated_at"}),
	}).Create(item).Error
	if err != nil {
		return nil, err
	}
	return r.Get(db, key)
}

func (r *SiteConfigRepositoryImpl) Delete(db *gorm.DB, key string) error {
	result := db.Where("config_key = ?", key).Delete(&models.SiteConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSiteConfigNotFound
	}
	return nil
}

// ============================================
// Blog
// ============================================

type BlogRepository interface {
	Create(db *gorm.DB, post *models.BlogPost) error
	FindByID(db *gorm.DB, id string) (*models.BlogPost, error)
	FindPublishedBySlug(db *gorm.DB, slug string) (*models.BlogPost, error)
	FindAll(db *gorm.DB, publishedOnly bool) ([]models.BlogPost, error)
	Update(db *gorm.DB, id string, updates map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
}

type BlogRepositoryImpl struct{}

func NewBlogRepository() BlogRepository {
	return &BlogRepositoryImpl{}
}

func (r *BlogRepositoryImpl) Create(db *gorm.DB, post *models.BlogPost) error {
	if err := db.Create(post).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrBlogSlugExists
		}
		return err
	}
	return nil
}

func (r *BlogRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *BlogRepositoryImpl) FindPublishedBySlug(db *gorm.DB, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := db.Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *BlogRepositoryImpl) FindAll(db *gorm.DB, publishedOnly bool) ([]models.BlogPost, error) {
	query := db.Model(&models.BlogPost{})
	if publishedOnly {
		query = query.Where("published = ?", true).Order("published_at DESC")
	} else {
		query = query.Order("created_at DESC")
	}
	var posts []models.BlogPost
	err := query.Find(&posts).Error
	return posts, err
}

func (r *BlogRepositoryImpl) Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.Model(&models.BlogPost{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if IsDuplicateKey(result.Error) {
			return ErrBlogSlugExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBlogPostNotFound
	}
	return nil
}

func (r *BlogRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.BlogPost{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBlogPostNotFound
	}
	return nil
}

// ============================================
// Payment events
// ============================================

type PaymentEventRepository interface {
	// Record сохраняет событие; повторный EventID -> ErrEventAlreadySeen
	Record(db *gorm.DB, event *models.PaymentEvent) error
}

type PaymentEventRepositoryImpl struct{}

func NewPaymentEventRepository() PaymentEventRepository {
	return &PaymentEventRepositoryImpl{}
}

// Record использует ON CONFLICT DO NOTHING: ошибка уникальности в postgres обрывает транзакцию
func (r *PaymentEventRepositoryImpl) Record(db *gorm.DB, event *models.PaymentEvent) error {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventAlreadySeen
	}
	return nil
}
