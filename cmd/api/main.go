package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promoadmin/internal/config"
	"promoadmin/internal/db"
	"promoadmin/internal/db/migrations"
	"promoadmin/internal/routes"
)

// @title promoadmin console API
// @version 1.0
// @description Backend for the promotion administration console.
// @BasePath /
func main() {
	cfg := config.Load()
	ctx := context.Background()

	// The audit log is optional.
	var auditDB *sql.DB
	if cfg.DatabaseURL != "" {
		if err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to ensure database exists: %v", err)
		}
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := migrations.RunMigrations(database.DB); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		auditDB = database.DB
	} else {
		log.Println("DATABASE_URL not set, audit log disabled")
	}

	var s3Config *config.S3Config
	if cfg.AssetBucket != "" {
		var err error
		s3Config, err = config.NewS3Config(cfg)
		if err != nil {
			log.Fatalf("Failed to configure asset bucket: %v", err)
		}
		log.Printf("Asset import enabled from bucket %s", cfg.AssetBucket)
	}

	router := routes.SetupRoutes(auditDB, cfg, s3Config)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (promo API %s)", cfg.Port, cfg.PromoAPIBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Uploads run inside requests; give them time to finish.
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
