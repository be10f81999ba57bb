package routes

import (
	"github.com/go-chi/chi/v5"
	"promoadmin/internal/handlers"
)

func RegisterAuthRoutes(router chi.Router, base *handlers.BaseHandler) {
	authHandler := handlers.NewAuthHandler(base)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})
}
