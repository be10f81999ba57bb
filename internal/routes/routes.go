package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"promoadmin/internal/config"
	"promoadmin/internal/handlers"
	"promoadmin/internal/interfaces"
	"promoadmin/internal/metrics"
	"promoadmin/internal/middleware"
	"promoadmin/internal/repository"
	"promoadmin/internal/services"
)

// Paths reachable without a session.
var publicPaths = []string{"/", "/login", "/health", "/metrics", "/swagger", "/api/v1/auth"}

// SetupRoutes builds the console router. db is nil when the audit log is
// disabled; s3Config is nil or has no bucket when asset import is disabled.
func SetupRoutes(db *sql.DB, cfg *config.Config, s3Config *config.S3Config) *chi.Mux {
	metrics.InitMetrics()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequireToken(publicPaths...))

	client := services.NewPromoAPIClient(cfg.PromoAPIBaseURL, nil)
	if cfg.PromoAPITimeout > 0 {
		client.SetHTTPClient(&http.Client{Timeout: cfg.PromoAPITimeout})
	}

	var audit interfaces.AuditRepository
	if db != nil {
		audit = repository.NewAuditRepository(db)
	}
	var assets *services.AssetSource
	if s3Config != nil && s3Config.Client != nil && s3Config.Bucket != "" {
		assets = services.NewAssetSource(s3Config.Client, s3Config.Bucket)
	}
	base := handlers.NewBaseHandler(client, cfg, audit)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "promoadmin console API", "docs": "/swagger/index.html"})
	})
	r.Get("/health", healthHandler(db, cfg))
	r.Handle("/metrics", promhttp.Handler())
	RegisterSwaggerRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		RegisterAuthRoutes(r, base)
		RegisterPromotionRoutes(r, base, assets)
		RegisterAuditRoutes(r, base)
	})

	return r
}

func healthHandler(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		}
		status := http.StatusOK

		dbStatus := map[string]any{"status": "disabled"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				dbStatus = map[string]any{"status": "down", "error": err.Error()}
				resp["status"] = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				dbStatus["status"] = "ok"
			}
		}
		resp["db"] = dbStatus

		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
