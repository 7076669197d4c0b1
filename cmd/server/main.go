package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/visiona-app/visiona/internal/api"
	"github.com/visiona-app/visiona/internal/audit"
	"github.com/visiona-app/visiona/internal/auth"
	"github.com/visiona-app/visiona/internal/billing"
	"github.com/visiona-app/visiona/internal/config"
	"github.com/visiona-app/visiona/internal/db"
	"github.com/visiona-app/visiona/internal/enhance"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/generation"
	"github.com/visiona-app/visiona/internal/logger"
	"github.com/visiona-app/visiona/internal/replicate"
	"github.com/visiona-app/visiona/internal/store"
	"github.com/visiona-app/visiona/internal/training"
	"github.com/visiona-app/visiona/internal/user"
)

const synthesisPollInterval = 2 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := db.NewBunPostgresClient(cfg.DatabaseURL)
	defer bunDB.Close()

	pgStore, err := store.NewPostgresStore(bunDB)
	if err != nil {
		log.Fatalf("Failed to create PostgreSQL store: %v", err)
	}

	userRepo := user.NewUserRepository(bunDB)
	if err := userRepo.InitializeDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize users table: %v", err)
	}
	userService := user.NewUserService(userRepo)

	auditWriter := audit.NewPostgresWriter(bunDB)
	if err := auditWriter.InitializeDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize audit log table: %v", err)
	}

	replicateClient := replicate.NewClient(replicate.Options{
		APIKey:       cfg.ReplicateAPIKey,
		BaseURL:      cfg.ReplicateBaseURL,
		PollInterval: synthesisPollInterval,
		MaxAttempts:  int(cfg.SynthesisTimeout / synthesisPollInterval),
	}, logger.Log)

	enhancer, err := enhance.NewGeminiEnhancer(ctx, enhance.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create prompt enhancer: %v", err)
	}

	resolver := entitlement.NewResolver(pgStore)
	quota := entitlement.NewQuotaGuard(pgStore, resolver)

	trainingManager := training.NewManager(pgStore, quota, replicateClient, auditWriter, logger.Log)

	orchestrator := generation.NewOrchestrator(generation.OrchestratorConfig{
		Store:       pgStore,
		Quota:       quota,
		Enhancer:    enhancer,
		Synthesizer: replicateClient,
		Audit:       auditWriter,
	})

	billingService := billing.NewBilling(cfg)
	ingestor := billing.NewIngestor(billingService, pgStore, auditWriter, logger.Log)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}

	handler := api.NewHandler(trainingManager, orchestrator, quota, pgStore)
	photoHandler := api.NewPhotoHandler(pgStore, cfg.PhotoBucket)
	checkoutHandler := api.NewCheckoutHandler(billingService)
	webhookHandler := api.NewWebhookHandler(ingestor)

	router := api.SetupRoutes(handler, photoHandler, checkoutHandler, webhookHandler, jwtVerifier, userService, cfg.FE_BASE_URL)

	// Generation blocks until the synthesis job finishes, so the write
	// timeout must cover the polling budget.
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SynthesisTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}
