package api

import (
	"io"
	"log"
	"net/http"

	"github.com/visiona-app/visiona/internal/billing"
)

type WebhookHandler struct {
	ingestor *billing.Ingestor
}

func NewWebhookHandler(ingestor *billing.Ingestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Failed to read webhook body: %v", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read body.")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := h.ingestor.Ingest(r.Context(), payload, signature); err != nil {
		log.Printf("Webhook handling failed: %v", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
