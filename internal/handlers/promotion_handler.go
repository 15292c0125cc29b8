package handlers

import (
	"net/http"

	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PromotionHandler struct {
	*BaseHandler
	promotionService services.PromotionService
}

func NewPromotionHandler(base *BaseHandler, promotionService services.PromotionService) *PromotionHandler {
	return &PromotionHandler{
		BaseHandler:      base,
		promotionService: promotionService,
	}
}

// Validate всегда 200: недействительный код - это valid=false с причиной
func (h *PromotionHandler) Validate(c *gin.Context) {
	var req dto.PromotionCodeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	resp, err := h.promotionService.Validate(h.GetDB(c), req.Code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PromotionHandler) Redeem(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.PromotionCodeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	resp, err := h.promotionService.Redeem(h.GetDB(c), userID, req.Code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ============================================
// Admin
// ============================================

func (h *PromotionHandler) List(c *gin.Context) {
	promotions, err := h.promotionService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotions)
}

func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	promotion, err := h.promotionService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promotion)
}

func (h *PromotionHandler) Update(c *gin.Context) {
	var req dto.UpdatePromotionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	promotion, err := h.promotionService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotion)
}

func (h *PromotionHandler) Delete(c *gin.Context) {
	if err := h.promotionService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
