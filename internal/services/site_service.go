package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ключи site config, которые читают публичные страницы
const (
	SiteConfigPricing = "pricing"
	SiteConfigAbout   = "about"
)

// значения по умолчанию, пока админ не задал свои
var (
	defaultPricing = json.RawMessage(`{"plans":[` +
		`{"id":"FREE","name":"Free","price":0,"currency":"USD","interval":"month","features":["Public chatbot","Registered downloads"]},` +
		`{"id":"PRO","name":"Pro","price":19,"currency":"USD","interval":"month","features":["Premium downloads","Priority support"]}]}`)
	defaultAbout = json.RawMessage(`{"title":"About us","content":""}`)
)

type SiteService interface {
	PublicConfig(db *gorm.DB) (map[string]json.RawMessage, error)
	Pricing(db *gorm.DB) (json.RawMessage, error)
	About(db *gorm.DB) (json.RawMessage, error)

	// Admin config operations
	ListConfig(db *gorm.DB) ([]models.SiteConfig, error)
	GetConfig(db *gorm.DB, key string) (*models.SiteConfig, error)
	SetConfig(db *gorm.DB, key string, req *dto.SiteConfigRequest) (*models.SiteConfig, error)
	DeleteConfig(db *gorm.DB, key string) error

	// Blog
	ListPublishedPosts(db *gorm.DB) ([]*dto.BlogPostSummary, error)
	GetPublishedPost(db *gorm.DB, slug string) (*models.BlogPost, error)
	ListPosts(db *gorm.DB) ([]models.BlogPost, error)
	GetPost(db *gorm.DB, id string) (*models.BlogPost, error)
	CreatePost(db *gorm.DB, authorID string, req *dto.CreateBlogPostRequest) (*models.BlogPost, error)
	UpdatePost(db *gorm.DB, id string, req *dto.UpdateBlogPostRequest) (*models.BlogPost, error)
	DeletePost(db *gorm.DB, id string) error
}

type SiteServiceImpl struct {
	configRepo repositories.SiteConfigRepository
	blogRepo   repositories.BlogRepository
	now        func() time.Time
}

func NewSiteService(configRepo repositories.SiteConfigRepository, blogRepo repositories.BlogRepository) SiteService {
	return &SiteServiceImpl{
		configRepo: configRepo,
		blogRepo:   blogRepo,
		now:        time.Now,
	}
}

// ============================================
// Site config
// ============================================

func (s *SiteServiceImpl) PublicConfig(db *gorm.DB) (map[string]json.RawMessage, error) {
	items, err := s.configRepo.List(db, true)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		result[item.Key] = json.RawMessage(item.Value)
	}
	return result, nil
}

func (s *SiteServiceImpl) Pricing(db *gorm.DB) (json.RawMessage, error) {
	return s.valueOrDefault(db, SiteConfigPricing, defaultPricing)
}

func (s *SiteServiceImpl) About(db *gorm.DB) (json.RawMessage, error) {
	return s.valueOrDefault(db, SiteConfigAbout, defaultAbout)
}

func (s *SiteServiceImpl) valueOrDefault(db *gorm.DB, key string, fallback json.RawMessage) (json.RawMessage, error) {
	item, err := s.configRepo.Get(db, key)
	if err != nil {
		if errors.Is(err, repositories.ErrSiteConfigNotFound) {
			return fallback, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return json.RawMessage(item.Value), nil
}

func (s *SiteServiceImpl) ListConfig(db *gorm.DB) ([]models.SiteConfig, error) {
	items, err := s.configRepo.List(db, false)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return items, nil
}

func (s *SiteServiceImpl) GetConfig(db *gorm.DB, key string) (*models.SiteConfig, error) {
	item, err := s.configRepo.Get(db, normalizeConfigKey(key))
	if err != nil {
		return nil, handleSiteConfigError(err)
	}
	return item, nil
}

// SetConfig: isPublic не передан - сохраняется текущее значение (для новой записи false)
func (s *SiteServiceImpl) SetConfig(db *gorm.DB, key string, req *dto.SiteConfigRequest) (*models.SiteConfig, error) {
	key = normalizeConfigKey(key)
	if key == "" || len(key) > 100 {
		return nil, apperrors.NewBadRequestError("Invalid config key")
	}
	if !json.Valid(req.Value) {
		return nil, apperrors.NewBadRequestError("Config value must be valid JSON")
	}

	var result *models.SiteConfig
	err := db.Transaction(func(tx *gorm.DB) error {
		isPublic := false
		if req.IsPublic != nil {
			isPublic = *req.IsPublic
		} else if current, err := s.configRepo.Get(tx, key); err == nil {
			isPublic = current.IsPublic
		} else if !errors.Is(err, repositories.ErrSiteConfigNotFound) {
			return err
		}

		var err error
		result, err = s.configRepo.Upsert(tx, key, datatypes.JSON(req.Value), isPublic)
		return err
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return result, nil
}

func (s *SiteServiceImpl) DeleteConfig(db *gorm.DB, key string) error {
	if err := s.configRepo.Delete(db, normalizeConfigKey(key)); err != nil {
		return handleSiteConfigError(err)
	}
	return nil
}

// ============================================
// Blog
// ============================================

func (s *SiteServiceImpl) ListPublishedPosts(db *gorm.DB) ([]*dto.BlogPostSummary, error) {
	posts, err := s.blogRepo.FindAll(db, true)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make([]*dto.BlogPostSummary, 0, len(posts))
	for _, p := range posts {
		result = append(result, &dto.BlogPostSummary{
			ID:          p.ID,
			Slug:        p.Slug,
			Title:       p.Title,
			Excerpt:     p.Excerpt,
			PublishedAt: p.PublishedAt,
		})
	}
	return result, nil
}

func (s *SiteServiceImpl) GetPublishedPost(db *gorm.DB, slug string) (*models.BlogPost, error) {
	post, err := s.blogRepo.FindPublishedBySlug(db, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, handleBlogError(err)
	}
	return post, nil
}

func (s *SiteServiceImpl) ListPosts(db *gorm.DB) ([]models.BlogPost, error) {
	posts, err := s.blogRepo.FindAll(db, false)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return posts, nil
}

func (s *SiteServiceImpl) GetPost(db *gorm.DB, id string) (*models.BlogPost, error) {
	if !validID(id) {
		return nil, apperrors.ErrBlogPostNotFound
	}
	post, err := s.blogRepo.FindByID(db, id)
	if err != nil {
		return nil, handleBlogError(err)
	}
	return post, nil
}

func (s *SiteServiceImpl) CreatePost(db *gorm.DB, authorID string, req *dto.CreateBlogPostRequest) (*models.BlogPost, error) {
	post := &models.BlogPost{
		Slug:      strings.ToLower(strings.TrimSpace(req.Slug)),
		Title:     strings.TrimSpace(req.Title),
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Published: req.Published,
	}
	if authorID != "" {
		post.AuthorID = &authorID
	}
	if req.Published {
		now := s.now().UTC()
		post.PublishedAt = &now
	}

	if err := s.blogRepo.Create(db, post); err != nil {
		return nil, handleBlogError(err)
	}
	return post, nil
}

// UpdatePost: publishedAt ставится при первой публикации и дальше не меняется
func (s *SiteServiceImpl) UpdatePost(db *gorm.DB, id string, req *dto.UpdateBlogPostRequest) (*models.BlogPost, error) {
	if !validID(id) {
		return nil, apperrors.ErrBlogPostNotFound
	}

	var result *models.BlogPost
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := s.blogRepo.FindByID(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Slug != nil {
			updates["slug"] = strings.ToLower(strings.TrimSpace(*req.Slug))
		}
		if req.Title != nil {
			updates["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Excerpt != nil {
			updates["excerpt"] = *req.Excerpt
		}
		if req.Content != nil {
			updates["content"] = *req.Content
		}
		if req.Published != nil {
			updates["published"] = *req.Published
			if *req.Published && current.PublishedAt == nil {
				updates["published_at"] = s.now().UTC()
			}
		}

		if len(updates) > 0 {
			if err := s.blogRepo.Update(tx, id, updates); err != nil {
				return err
			}
		}
		result, err = s.blogRepo.FindByID(tx, id)
		return err
	})
	if err != nil {
		return nil, handleBlogError(err)
	}
	return result, nil
}

func (s *SiteServiceImpl) DeletePost(db *gorm.DB, id string) error {
	if !validID(id) {
		return apperrors.ErrBlogPostNotFound
	}
	if err := s.blogRepo.Delete(db, id); err != nil {
		return handleBlogError(err)
	}
	return nil
}

func normalizeConfigKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func handleSiteConfigError(err error) error {
	if errors.Is(err, repositories.ErrSiteConfigNotFound) {
		return apperrors.ErrSiteConfigNotFound
	}
	return apperrors.InternalError(err)
}

func handleBlogError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrBlogPostNotFound):
		return apperrors.ErrBlogPostNotFound
	case errors.Is(err, repositories.ErrBlogSlugExists):
		return apperrors.ErrDuplicate(err, "blog", "Blog post with this slug already exists")
	default:
		return apperrors.InternalError(err)
	}
}
