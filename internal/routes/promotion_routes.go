package routes

import (
	"github.com/go-chi/chi/v5"
	"promoadmin/internal/handlers"
	"promoadmin/internal/services"
)

func RegisterPromotionRoutes(router chi.Router, base *handlers.BaseHandler, assets *services.AssetSource) {
	promotionHandler := handlers.NewPromotionHandler(base)
	fileHandler := handlers.NewFileHandler(base, assets)

	router.Route("/promotions", func(r chi.Router) {
		r.Get("/", promotionHandler.ListPromotions)
		r.Post("/", promotionHandler.CreatePromotion)
		r.Get("/parents", promotionHandler.ListParents)
		r.Post("/form/parent", promotionHandler.SelectParent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", promotionHandler.GetPromotion)
			r.Put("/", promotionHandler.UpdatePromotion)
			r.Delete("/", promotionHandler.DeletePromotion)
			r.Get("/promo-url", promotionHandler.PromoURL)
			registerFileRoutes(r, fileHandler)
		})
	})
}
