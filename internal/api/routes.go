package api

import (
	"github.com/gorilla/mux"
	"github.com/visiona-app/visiona/internal/auth"
	"github.com/visiona-app/visiona/internal/user"
)

func SetupRoutes(
	handler *Handler,
	photoHandler *PhotoHandler,
	checkoutHandler *CheckoutHandler,
	webhookHandler *WebhookHandler,
	jwtVerifier *auth.JWTVerifier,
	userService user.Service,
	allowedOrigin string,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(CORSMiddleware(allowedOrigin))
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Stripe calls this endpoint directly, so it stays outside the auth chain.
	r.HandleFunc("/api/v1/webhooks/stripe", webhookHandler.HandleStripeWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware(jwtVerifier))
	api.Use(user.UserMiddleware(userService))

	api.HandleFunc("/user", handler.GetCurrentUser).Methods("GET")

	api.HandleFunc("/models", handler.ListModels).Methods("GET")
	api.HandleFunc("/models/train", handler.StartTraining).Methods("POST")
	api.HandleFunc("/models/{modelID}/status", handler.GetTrainingStatus).Methods("GET")

	api.HandleFunc("/generate", handler.Generate).Methods("POST")
	api.HandleFunc("/gallery", handler.ListGenerations).Methods("GET")
	api.HandleFunc("/gallery/{generationID}", handler.DeleteGeneration).Methods("DELETE")

	api.HandleFunc("/quota", handler.GetQuotaSummary).Methods("GET")

	api.HandleFunc("/photos/upload-url", photoHandler.GetUploadURL).Methods("POST")
	api.HandleFunc("/photos", photoHandler.ConfirmUpload).Methods("POST")
	api.HandleFunc("/photos", photoHandler.ListPhotos).Methods("GET")

	api.HandleFunc("/payment/subscribe", checkoutHandler.CreateSubscriptionCheckout).Methods("POST")

	return r
}
