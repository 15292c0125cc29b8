package handlers

import (
	"net/http"

	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type EmailTemplateHandler struct {
	*BaseHandler
	templateService services.EmailTemplateService
}

func NewEmailTemplateHandler(base *BaseHandler, templateService services.EmailTemplateService) *EmailTemplateHandler {
	return &EmailTemplateHandler{
		BaseHandler:     base,
		templateService: templateService,
	}
}

func (h *EmailTemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *EmailTemplateHandler) Get(c *gin.Context) {
	template, err := h.templateService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *EmailTemplateHandler) Create(c *gin.Context) {
	var req dto.CreateEmailTemplateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	template, err := h.templateService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *EmailTemplateHandler) Update(c *gin.Context) {
	var req dto.UpdateEmailTemplateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	template, err := h.templateService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *EmailTemplateHandler) Delete(c *gin.Context) {
	if err := h.templateService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Preview - тело необязательно, без него подставляются тестовые значения
func (h *EmailTemplateHandler) Preview(c *gin.Context) {
	var req dto.PreviewTemplateRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}
	preview, err := h.templateService.Preview(h.GetDB(c), c.Param("id"), req.Variables)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *EmailTemplateHandler) SendTest(c *gin.Context) {
	var req dto.SendTestEmailRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	resp, err := h.templateService.SendTest(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
