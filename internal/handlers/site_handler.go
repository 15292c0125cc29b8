package handlers

import (
	"net/http"

	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SiteHandler struct {
	*BaseHandler
	siteService services.SiteService
}

func NewSiteHandler(base *BaseHandler, siteService services.SiteService) *SiteHandler {
	return &SiteHandler{
		BaseHandler: base,
		siteService: siteService,
	}
}

// ============================================
// Публичные страницы
// ============================================

func (h *SiteHandler) PublicConfig(c *gin.Context) {
	cfg, err := h.siteService.PublicConfig(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *SiteHandler) Pricing(c *gin.Context) {
	pricing, err := h.siteService.Pricing(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", pricing)
}

func (h *SiteHandler) About(c *gin.Context) {
	about, err := h.siteService.About(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", about)
}

func (h *SiteHandler) ListPublishedPosts(c *gin.Context) {
	posts, err := h.siteService.ListPublishedPosts(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *SiteHandler) GetPublishedPost(c *gin.Context) {
	post, err := h.siteService.GetPublishedPost(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ============================================
// Admin: конфиг
// ============================================

func (h *SiteHandler) ListConfig(c *gin.Context) {
	items, err := h.siteService.ListConfig(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *SiteHandler) GetConfig(c *gin.Context) {
	item, err := h.siteService.GetConfig(h.GetDB(c), c.Param("key"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *SiteHandler) SetConfig(c *gin.Context) {
	var req dto.SiteConfigRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	item, err := h.siteService.SetConfig(h.GetDB(c), c.Param("key"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *SiteHandler) DeleteConfig(c *gin.Context) {
	if err := h.siteService.DeleteConfig(h.GetDB(c), c.Param("key")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ============================================
// Admin: блог
// ============================================

func (h *SiteHandler) ListPosts(c *gin.Context) {
	posts, err := h.siteService.ListPosts(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *SiteHandler) GetPost(c *gin.Context) {
	post, err := h.siteService.GetPost(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *SiteHandler) CreatePost(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreateBlogPostRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	post, err := h.siteService.CreatePost(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *SiteHandler) UpdatePost(c *gin.Context) {
	var req dto.UpdateBlogPostRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	post, err := h.siteService.UpdatePost(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *SiteHandler) DeletePost(c *gin.Context) {
	if err := h.siteService.DeletePost(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
