package handlers

import (
	"encoding/json"
	"net/http"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Signature"

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

// Webhook - подпись считается по сырому телу, поэтому биндинг gin тут не используется
func (h *PaymentHandler) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	rawBody, err := c.GetRawData()
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	if err := h.paymentService.VerifySignature(rawBody, c.GetHeader(signatureHeader)); err != nil {
		logger.CtxWarn(ctx, "Payment webhook rejected", "ip", c.ClientIP(), "reason", err.Error())
		h.HandleServiceError(c, err)
		return
	}

	var event dto.PaymentWebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Invalid event payload"))
		return
	}
	if !h.validate(c, &event, "Payment event validation failed") {
		return
	}

	resp, err := h.paymentService.HandleEvent(h.GetDB(c), rawBody, &event)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
