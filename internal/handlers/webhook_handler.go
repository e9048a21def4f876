package handlers

import (
	"io"
	"net/http"

	"medimind_backend/internal/logger"
	"medimind_backend/internal/services"
	"medimind_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives Stripe callbacks. The route carries no auth
// middleware; the signature header is the authentication.
type WebhookHandler struct {
	*BaseHandler
	webhookService services.WebhookService
}

func NewWebhookHandler(base *BaseHandler, webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    base,
		webhookService: webhookService,
	}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stripe/webhook", h.HandleStripeWebhook)
}

func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	const maxBodyBytes = 65536
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	event, err := h.webhookService.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "webhook signature verification failed", "ip", c.ClientIP())
		h.HandleServiceError(c, err)
		return
	}

	db := h.GetDB(c)

	if err := h.webhookService.HandleEvent(c.Request.Context(), db, event); err != nil {
		// Non-2xx makes Stripe retry the delivery.
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
