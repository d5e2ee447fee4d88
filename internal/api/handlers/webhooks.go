package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/webhooks"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type WebhooksHandler struct {
	processor *webhooks.Processor
	logger    zerolog.Logger
}

func NewWebhooksHandler(processor *webhooks.Processor, logger zerolog.Logger) *WebhooksHandler {
	return &WebhooksHandler{processor: processor, logger: logger}
}

type webhookRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	OrderID        int64  `json:"order_id"`
	PaymentStatus  string `json:"payment_status"`
}

type webhookResponse struct {
	Message          string `json:"message"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// HandleWebhook implements POST /payments/webhook. The full request body,
// not just the fields the handler cares about, is stored verbatim as the
// webhook log's payload — so the body is read raw and unmarshalled here
// rather than bound through gin.
func (h *WebhooksHandler) HandleWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read request body"})
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if req.IdempotencyKey == "" || len(req.IdempotencyKey) > 255 || req.OrderID <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key and order_id are required"})
		return
	}
	if req.PaymentStatus != webhooks.StatusSuccess && req.PaymentStatus != webhooks.StatusFailure {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": `payment_status must be "success" or "failure"`})
		return
	}

	result, err := h.processor.Process(c.Request.Context(), req.IdempotencyKey, req.OrderID, req.PaymentStatus, raw)
	if err != nil {
		if errors.Is(err, apperr.ErrOrderNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Message})
			return
		}
		respondError(c, h.logger, "process webhook", err)
		return
	}

	c.JSON(http.StatusOK, webhookResponse{
		Message:          result.Message,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}
