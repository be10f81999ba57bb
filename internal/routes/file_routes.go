package routes

import (
	"github.com/go-chi/chi/v5"
	"promoadmin/internal/handlers"
)

// registerFileRoutes mounts under /promotions/{id}.
func registerFileRoutes(router chi.Router, fileHandler *handlers.FileHandler) {
	router.Route("/files", func(r chi.Router) {
		r.Get("/", fileHandler.ListFiles)
		r.Post("/", fileHandler.UploadFiles)
		r.Put("/", fileHandler.UpdateFile)
		r.Delete("/", fileHandler.DeleteFile)
		r.Post("/import", fileHandler.ImportFiles)
		r.Post("/batch-delete", fileHandler.BatchDeleteFiles)
	})
}
