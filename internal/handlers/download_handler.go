package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type DownloadHandler struct {
	*BaseHandler
	downloadService services.DownloadService
}

func NewDownloadHandler(base *BaseHandler, downloadService services.DownloadService) *DownloadHandler {
	return &DownloadHandler{
		BaseHandler:     base,
		downloadService: downloadService,
	}
}

// List - каталог с флагом canAccess для текущего субъекта
func (h *DownloadHandler) List(c *gin.Context) {
	downloads, err := h.downloadService.List(h.GetDB(c), h.GetIdentity(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, downloads)
}

// Download отдает файл целиком
func (h *DownloadHandler) Download(c *gin.Context) {
	stream, err := h.downloadService.Serve(c.Request.Context(), h.GetDB(c), c.Param("id"), h.GetIdentity(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer stream.Reader.Close()

	size := stream.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, stream.MimeType, stream.Reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", stream.FileName),
		"Cache-Control":       "private, no-store",
	})
}

// ============================================
// Admin
// ============================================

func (h *DownloadHandler) AdminList(c *gin.Context) {
	downloads, err := h.downloadService.AdminList(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, downloads)
}

// AdminUpload - multipart: file + title, description, accessLevel, tags
func (h *DownloadHandler) AdminUpload(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDownloadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("File is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}

	download, err := h.downloadService.Upload(c.Request.Context(), h.GetDB(c), userID, &req, &dto.UploadedFile{
		Reader:   file,
		FileName: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, download)
}

func (h *DownloadHandler) AdminUpdate(c *gin.Context) {
	var req dto.UpdateDownloadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	download, err := h.downloadService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, download)
}

func (h *DownloadHandler) AdminDelete(c *gin.Context) {
	if err := h.downloadService.Delete(c.Request.Context(), h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
