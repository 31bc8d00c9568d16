package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/repositories"
	"alfredoptarigan/career-reviewer/internal/services"
)

type AnalysisHandler struct {
	reviewer   services.ReviewerService
	resultRepo repositories.ReviewResultRepository
}

func NewAnalysisHandler(reviewer services.ReviewerService, resultRepo repositories.ReviewResultRepository) *AnalysisHandler {
	return &AnalysisHandler{
		reviewer:   reviewer,
		resultRepo: resultRepo,
	}
}

// HandleAnalyze handles POST /students/:id/analyses/:kind. The body is optional.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID format",
		})
	}

	kind := models.ReviewKind(c.Params("kind"))

	var req models.AnalysisRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
	}

	if kind == models.KindJobMatching && len(req.Jobs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "jobs are required for job matching",
		})
	}

	result, err := h.reviewer.AnalyzeStudent(c.UserContext(), studentID, kind, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// HandleListAnalyses handles GET /students/:id/analyses
func (h *AnalysisHandler) HandleListAnalyses(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID format",
		})
	}

	results, err := h.resultRepo.FindByStudentID(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"student_id": studentID.String(),
		"analyses":   results,
	})
}
