package routes

import (
	"github.com/go-chi/chi/v5"
	"promoadmin/internal/handlers"
)

func RegisterAuditRoutes(router chi.Router, base *handlers.BaseHandler) {
	auditHandler := handlers.NewAuditHandler(base)
	router.Get("/audit", auditHandler.ListAudit)
}
