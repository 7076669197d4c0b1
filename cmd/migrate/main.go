package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/visiona-app/visiona/internal/audit"
	"github.com/visiona-app/visiona/internal/config"
	"github.com/visiona-app/visiona/internal/db"
	"github.com/visiona-app/visiona/internal/store"
	"github.com/visiona-app/visiona/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := db.NewBunPostgresClient(cfg.DatabaseURL)
	defer bunDB.Close()

	if _, err := store.NewPostgresStore(bunDB); err != nil {
		log.Fatalf("Failed to initialize core tables: %v", err)
	}

	if err := user.NewUserRepository(bunDB).InitializeDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize users table: %v", err)
	}

	if err := audit.NewPostgresWriter(bunDB).InitializeDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize audit log table: %v", err)
	}

	log.Println("Database initialized")
}
