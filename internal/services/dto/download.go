package dto

import (
	"io"
	"time"

	"chatsaas_backend/internal/models"
)

type DownloadResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	FileName      string             `json:"fileName"`
	FileSize      int64              `json:"fileSize"`
	MimeType      string             `json:"mimeType"`
	AccessLevel   models.AccessLevel `json:"accessLevel"`
	Tags          []string           `json:"tags"`
	DownloadCount int64              `json:"downloadCount"`
	CanAccess     bool               `json:"canAccess"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func NewDownloadResponse(d *models.Download, canAccess bool) *DownloadResponse {
	tags := []string(d.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &DownloadResponse{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		FileName:      d.FileName,
		FileSize:      d.FileSize,
		MimeType:      d.MimeType,
		AccessLevel:   d.AccessLevel,
		Tags:          tags,
		DownloadCount: d.DownloadCount,
		CanAccess:     canAccess,
		CreatedAt:     d.CreatedAt,
	}
}

// CreateDownloadRequest - поля multipart формы (файл передается отдельно)
type CreateDownloadRequest struct {
	Title       string   `form:"title" json:"title" validate:"required,min=1,max=200"`
	Description string   `form:"description" json:"description" validate:"max=2000"`
	AccessLevel string   `form:"accessLevel" json:"accessLevel" validate:"required,is-access-level"`
	Tags        []string `form:"tags" json:"tags" validate:"max=20,dive,min=1,max=50"`
}

type UpdateDownloadRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// FileStream - то, что отдается клиенту при скачивании
type FileStream struct {
	Reader   io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

// UploadedFile - файл из multipart формы
type UploadedFile struct {
	Reader   io.Reader
	FileName string
	MimeType string
	Size     int64
}
