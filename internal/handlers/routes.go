package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Upload   *UploadHandler
	Review   *ReviewHandler
	Analysis *AnalysisHandler
}

func RegisterRoutes(api fiber.Router, h Handlers) {
	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/documents", h.Upload.HandleUpload)
	api.Post("/documents/:id/review", h.Review.HandleReview)
	api.Get("/documents/:id", h.Review.HandleGetDocument)
	api.Post("/students/:id/analyses/:kind", h.Analysis.HandleAnalyze)
	api.Get("/students/:id/analyses", h.Analysis.HandleListAnalyses)
}
