package models

import "gorm.io/datatypes"

type Download struct {
	BaseModel
	Title         string                      `gorm:"not null" json:"title"`
	Description   string                      `json:"description"`
	FileName      string                      `gorm:"not null" json:"fileName"`
	FilePath      string                      `gorm:"not null" json:"-"`
	FileSize      int64                       `json:"fileSize"`
	MimeType      string                      `json:"mimeType"`
	AccessLevel   AccessLevel                 `gorm:"type:varchar(20);not null" json:"accessLevel"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	DownloadCount int64                       `gorm:"not null;default:0" json:"downloadCount"`
	UploadedByID  *string                     `gorm:"type:uuid;index" json:"uploadedById"`
}
