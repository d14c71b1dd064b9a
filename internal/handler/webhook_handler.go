package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"scripta/internal/service"
	"scripta/pkg/paystack"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	paymentSvc *service.PaymentService
	secretKey  string
}

func NewWebhookHandler(paymentSvc *service.PaymentService, secretKey string) *WebhookHandler {
	return &WebhookHandler{paymentSvc: paymentSvc, secretKey: secretKey}
}

// Paystack receives gateway webhook events. The signature is verified over
// the raw body before any decoding; processing is idempotent so gateway
// retries are safe.
func (h *WebhookHandler) Paystack(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_OPERATION", "unreadable body")
		return
	}
	if !paystack.VerifySignature(h.secretKey, body, c.GetHeader("x-paystack-signature")) {
		log.Printf("[Webhook] rejected event with bad signature")
		respondError(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed")
		return
	}

	var event paystack.Event
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_OPERATION", "malformed event payload")
		return
	}

	if err := h.paymentSvc.HandleEvent(&event); err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown payment reference")
			return
		}
		log.Printf("[Webhook] failed to process %s: %v", event.Event, err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
