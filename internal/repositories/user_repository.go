package repositories

import (
	"errors"
	"strings"
	"time"

	"chatsaas_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByGoogleID(db *gorm.DB, googleID string) (*models.User, error)
	FindByVerificationToken(db *gorm.DB, token string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, userID string, updates map[string]interface{}) error
	Delete(db *gorm.DB, userID string) error

	// Admin operations
	FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error)
	CountAll(db *gorm.DB) (int64, error)
	CountActivePro(db *gorm.DB, now time.Time) (int64, error)

	// Worker operations
	DowngradeExpired(db *gorm.DB, now time.Time) (int64, error)
}

type UserFilter struct {
	Role         models.UserRole
	Subscription models.SubscriptionTier
	Search       string
	Pagination
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	return r.findOne(db, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepositoryImpl) FindByGoogleID(db *gorm.DB, googleID string) (*models.User, error) {
	return r.findOne(db, "google_id = ?", googleID)
}

func (r *UserRepositoryImpl) FindByVerificationToken(db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(db, "verification_token = ?", token)
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := db.Create(user).Error; err != nil {
		if IsDuplicateKey(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, userID string, updates map[string]interface{}) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		if IsDuplicateKey(result.Error) {
			return ErrUserAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete удаляет пользователя вместе с его диалогами, сообщениями, чатботами и сессиями.
// Загруженные им файлы остаются, владелец обнуляется.
func (r *UserRepositoryImpl) Delete(db *gorm.DB, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		chatbotIDs := tx.Model(&models.Chatbot{}).Select("id").Where("user_id = ?", userID)
		conversationIDs := tx.Model(&models.Conversation{}).Select("id").
			Where("user_id = ? OR chatbot_id IN (?)", userID, chatbotIDs)

		if err := tx.Where("conversation_id IN (?)", conversationIDs).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR chatbot_id IN (?)", userID, chatbotIDs).Delete(&models.Conversation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Chatbot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Download{}).Where("uploaded_by_id = ?", userID).
			Update("uploaded_by_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
}

func (r *UserRepositoryImpl) FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error) {
	query := db.Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Subscription != "" {
		query = query.Where("subscription = ?", filter.Subscription)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var users []models.User
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) CountActivePro(db *gorm.DB, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).
		Where("subscription = ? AND (subscription_ends_at IS NULL OR subscription_ends_at > ?)", models.SubscriptionPro, now).
		Count(&count).Error
	return count, err
}

// DowngradeExpired переводит истекшие PRO подписки в FREE
func (r *UserRepositoryImpl) DowngradeExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.User{}).
		Where("subscription = ? AND subscription_ends_at IS NOT NULL AND subscription_ends_at <= ?", models.SubscriptionPro, now).
		Update("subscription", models.SubscriptionFree)
	return result.RowsAffected, result.Error
}
