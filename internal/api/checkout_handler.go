package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/visiona-app/visiona/internal/user"
)

type BillingService interface {
	CreateSubscriptionCheckout(ctx context.Context, userID int64, email, successURL, cancelURL string) (*stripe.CheckoutSession, error)
}

type CheckoutHandler struct {
	billing BillingService
}

func NewCheckoutHandler(billing BillingService) *CheckoutHandler {
	return &CheckoutHandler{billing: billing}
}

type CreateSubscriptionRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

func (h *CheckoutHandler) CreateSubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body.")
		return
	}

	if req.SuccessURL == "" || req.CancelURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "success_url and cancel_url are required.")
		return
	}

	session, err := h.billing.CreateSubscriptionCheckout(r.Context(), dbUser.ID, dbUser.Email, req.SuccessURL, req.CancelURL)
	if err != nil {
		log.Printf("Failed to create subscription checkout: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create checkout session.")
		return
	}

	writeJSON(w, CreateCheckoutResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	})
}
