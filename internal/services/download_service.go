package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/storage"
	"chatsaas_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const downloadsPrefix = "downloads"

type DownloadService interface {
	List(db *gorm.DB, identity *access.Identity) ([]*dto.DownloadResponse, error)
	// Serve: запись -> доступ -> файл -> счетчик. Счетчик растет только при успешной отдаче.
	Serve(ctx context.Context, db *gorm.DB, id string, identity *access.Identity) (*dto.FileStream, error)

	// Admin operations
	AdminList(db *gorm.DB) ([]*dto.DownloadResponse, error)
	Upload(ctx context.Context, db *gorm.DB, uploaderID string, req *dto.CreateDownloadRequest, file *dto.UploadedFile) (*dto.DownloadResponse, error)
	Update(db *gorm.DB, id string, req *dto.UpdateDownloadRequest) (*dto.DownloadResponse, error)
	Delete(ctx context.Context, db *gorm.DB, id string) error
}

type DownloadServiceImpl struct {
	downloadRepo repositories.DownloadRepository
	storage      storage.Storage
	evaluator    access.Evaluator
	maxSize      int64
}

func NewDownloadService(
	downloadRepo repositories.DownloadRepository,
	storage storage.Storage,
	evaluator access.Evaluator,
	maxSize int64,
) DownloadService {
	return &DownloadServiceImpl{
		downloadRepo: downloadRepo,
		storage:      storage,
		evaluator:    evaluator,
		maxSize:      maxSize,
	}
}

func (s *DownloadServiceImpl) List(db *gorm.DB, identity *access.Identity) ([]*dto.DownloadResponse, error) {
	downloads, err := s.downloadRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.DownloadResponse, 0, len(downloads))
	for i := range downloads {
		d := &downloads[i]
		result = append(result, dto.NewDownloadResponse(d, s.evaluator.CanAccess(d.AccessLevel, identity)))
	}
	return result, nil
}

func (s *DownloadServiceImpl) Serve(ctx context.Context, db *gorm.DB, id string, identity *access.Identity) (*dto.FileStream, error) {
	download, err := s.find(db, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Authorize(download.AccessLevel, identity); err != nil {
		return nil, err
	}

	reader, err := s.storage.Get(ctx, download.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// запись есть, файла нет - это 404, а не сбой
			logger.CtxWarn(ctx, "Download file is missing in storage", "download_id", download.ID, "path", download.FilePath)
			return nil, apperrors.ErrFileMissing
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.downloadRepo.IncrementCount(db, download.ID); err != nil {
		reader.Close()
		if errors.Is(err, repositories.ErrDownloadNotFound) {
			return nil, apperrors.ErrDownloadNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	mimeType := download.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &dto.FileStream{
		Reader:   reader,
		FileName: download.FileName,
		MimeType: mimeType,
		Size:     download.FileSize,
	}, nil
}

func (s *DownloadServiceImpl) AdminList(db *gorm.DB) ([]*dto.DownloadResponse, error) {
	downloads, err := s.downloadRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make([]*dto.DownloadResponse, 0, len(downloads))
	for i := range downloads {
		result = append(result, dto.NewDownloadResponse(&downloads[i], true))
	}
	return result, nil
}

func (s *DownloadServiceImpl) Upload(ctx context.Context, db *gorm.DB, uploaderID string, req *dto.CreateDownloadRequest, file *dto.UploadedFile) (*dto.DownloadResponse, error) {
	if file == nil || file.Reader == nil {
		return nil, apperrors.NewBadRequestError("File is required")
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("File exceeds maximum size of %d bytes", s.maxSize))
	}
	level, ok := models.ParseAccessLevel(req.AccessLevel)
	if !ok {
		return nil, apperrors.NewBadRequestError("Invalid access level")
	}

	fileName := sanitizeFileName(file.FileName)
	storagePath := path.Join(downloadsPrefix, uuid.NewString()+strings.ToLower(filepath.Ext(fileName)))

	if err := s.storage.Save(ctx, storagePath, file.Reader, file.MimeType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	var uploadedBy *string
	if uploaderID != "" {
		uploadedBy = &uploaderID
	}
	download := &models.Download{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		FileName:     fileName,
		FilePath:     storagePath,
		FileSize:     file.Size,
		MimeType:     file.MimeType,
		AccessLevel:  level,
		Tags:         req.Tags,
		UploadedByID: uploadedBy,
	}
	if err := s.downloadRepo.Create(db, download); err != nil {
		s.removeFile(ctx, storagePath)
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Download uploaded", "download_id", download.ID, "size", file.Size, "access_level", level)
	return dto.NewDownloadResponse(download, true), nil
}

func (s *DownloadServiceImpl) Update(db *gorm.DB, id string, req *dto.UpdateDownloadRequest) (*dto.DownloadResponse, error) {
	if !validID(id) {
		return nil, apperrors.ErrDownloadNotFound
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](req.Tags)
	}

	if len(updates) > 0 {
		if err := s.downloadRepo.Update(db, id, updates); err != nil {
			return nil, handleDownloadError(err)
		}
	}

	download, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	return dto.NewDownloadResponse(download, true), nil
}

// Delete удаляет запись; файл удаляется по возможности, ошибка только логируется
func (s *DownloadServiceImpl) Delete(ctx context.Context, db *gorm.DB, id string) error {
	download, err := s.find(db, id)
	if err != nil {
		return err
	}
	if err := s.downloadRepo.Delete(db, download.ID); err != nil {
		return handleDownloadError(err)
	}
	s.removeFile(ctx, download.FilePath)
	return nil
}

func (s *DownloadServiceImpl) find(db *gorm.DB, id string) (*models.Download, error) {
	if !validID(id) {
		return nil, apperrors.ErrDownloadNotFound
	}
	download, err := s.downloadRepo.FindByID(db, id)
	if err != nil {
		return nil, handleDownloadError(err)
	}
	return download, nil
}

func (s *DownloadServiceImpl) removeFile(ctx context.Context, storagePath string) {
	if err := s.storage.Delete(ctx, storagePath); err != nil {
		logger.CtxWithError(ctx, "Failed to delete download file", err, "path", storagePath)
	}
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func handleDownloadError(err error) error {
	if errors.Is(err, repositories.ErrDownloadNotFound) {
		return apperrors.ErrDownloadNotFound
	}
	return apperrors.InternalError(err)
}
