package repositories

import (
	"errors"

	"chatsaas_backend/internal/models"

	"gorm.io/gorm"
)

var ErrDownloadNotFound = errors.New("download not found")

type DownloadStats struct {
	Total          int64 `json:"total"`
	TotalDownloads int64 `json:"totalDownloads"`
}

type DownloadRepository interface {
	Create(db *gorm.DB, download *models.Download) error
	FindByID(db *gorm.DB, id string) (*models.Download, error)
	FindAll(db *gorm.DB) ([]models.Download, error)
	Update(db *gorm.DB, id string, updates map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
	IncrementCount(db *gorm.DB, id string) error
	GetStats(db *gorm.DB) (*DownloadStats, error)
}

type DownloadRepositoryImpl struct{}

func NewDownloadRepository() DownloadRepository {
	return &DownloadRepositoryImpl{}
}

func (r *DownloadRepositoryImpl) Create(db *gorm.DB, download *models.Download) error {
	return db.Create(download).Error
}

func (r *DownloadRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Download, error) {
	var download models.Download
	if err := db.First(&download, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDownloadNotFound
		}
		return nil, err
	}
	return &download, nil
}

func (r *DownloadRepositoryImpl) FindAll(db *gorm.DB) ([]models.Download, error) {
	var downloads []models.Download
	err := db.Order("created_at DESC").Find(&downloads).Error
	return downloads, err
}

func (r *DownloadRepositoryImpl) Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.Model(&models.Download{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDownloadNotFound
	}
	return nil
}

func (r *DownloadRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Download{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDownloadNotFound
	}
	return nil
}

// IncrementCount - атомарный инкремент на стороне БД, без read-modify-write
func (r *DownloadRepositoryImpl) IncrementCount(db *gorm.DB, id string) error {
	result := db.Model(&models.Download{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDownloadNotFound
	}
	return nil
}

func (r *DownloadRepositoryImpl) GetStats(db *gorm.DB) (*DownloadStats, error) {
	var stats DownloadStats
	err := db.Model(&models.Download{}).
		Select("COUNT(*) AS total, COALESCE(SUM(download_count), 0) AS total_downloads").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
