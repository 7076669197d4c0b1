package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/visiona-app/visiona/internal/billing"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/generation"
	"github.com/visiona-app/visiona/internal/store"
	"github.com/visiona-app/visiona/internal/training"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	}); err != nil {
		log.Printf("Failed to write JSON error: %v", err)
	}
}

// writeServiceError maps the closed set of service error kinds onto stable
// error codes. Anything unrecognized is an internal error; its detail stays
// in the server log.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitlement.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "quota_exceeded", "Daily generation limit reached. Upgrade to premium for more generations.")
	case errors.Is(err, entitlement.ErrModelLimitReached):
		writeError(w, http.StatusForbidden, "model_limit_reached", "Model limit reached. Upgrade to premium for unlimited models.")
	case errors.Is(err, training.ErrInsufficientPhotos):
		writeError(w, http.StatusBadRequest, "insufficient_photos", "At least 5 photos are required for training.")
	case errors.Is(err, training.ErrModelNotFound), errors.Is(err, generation.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "model_not_found", "Model not found.")
	case errors.Is(err, generation.ErrModelNotReady):
		writeError(w, http.StatusBadRequest, "model_not_ready", "Model is not ready for generation.")
	case errors.Is(err, generation.ErrSynthesisJobFailed):
		writeError(w, http.StatusBadGateway, "synthesis_failed", "Image synthesis failed.")
	case errors.Is(err, generation.ErrPersistenceFailed):
		writeError(w, http.StatusInternalServerError, "persistence_failed", "Generated images could not be saved.")
	case errors.Is(err, billing.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid_signature", "Event signature verification failed.")
	case errors.Is(err, billing.ErrMissingUserReference):
		writeError(w, http.StatusBadRequest, "missing_user_reference", "Event metadata lacks a user reference.")
	case errors.Is(err, billing.ErrPaymentRecordNotFound):
		writeError(w, http.StatusNotFound, "payment_record_not_found", "No matching payment record.")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	default:
		log.Printf("Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", internalServerError)
	}
}
