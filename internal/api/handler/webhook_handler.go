package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/payment"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// maxWebhookBytes Stripe payloads are far below this
const maxWebhookBytes = 64 << 10

// WebhookHandler payment provider callbacks. Authenticated by signature,
// not by JWT.
type WebhookHandler struct {
	bookingSvc service.BookingService
	logger     *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(bookingSvc service.BookingService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{bookingSvc: bookingSvc, logger: logger}
}

// Stripe
// POST /api/v1/webhooks/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(c, 10001, "invalid payload")
		return
	}

	err = h.bookingSvc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		response.OK(c, nil)
	case errors.Is(err, payment.ErrInvalidSignature):
		response.BadRequest(c, 17001, "invalid signature")
	case errors.Is(err, payment.ErrNotConfigured):
		response.Error(c, http.StatusNotFound, 17002, "payments are not enabled")
	case errors.Is(err, service.ErrAppointmentNotFound):
		// not ours, or already purged; acknowledge so Stripe stops retrying
		h.logger.Warn("webhook for unknown appointment", zap.Error(err))
		response.OK(c, nil)
	default:
		h.logger.Error("handle stripe webhook", zap.Error(err))
		response.InternalError(c)
	}
}
