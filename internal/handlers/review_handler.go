package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/repositories"
	"alfredoptarigan/career-reviewer/internal/services"
)

type ReviewHandler struct {
	docRepo    repositories.DocumentRepository
	dispatcher services.Dispatcher
}

func NewReviewHandler(docRepo repositories.DocumentRepository, dispatcher services.Dispatcher) *ReviewHandler {
	return &ReviewHandler{
		docRepo:    docRepo,
		dispatcher: dispatcher,
	}
}

// HandleReview handles POST /documents/:id/review. The status check here only
// gives an early answer; the reviewer's conditional update is what guards the
// transition.
func (h *ReviewHandler) HandleReview(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	doc, err := h.docRepo.FindByID(c.UserContext(), docID)
	if err != nil {
		return respondError(c, err)
	}

	switch doc.Status {
	case models.StatusReviewing:
		return respondError(c, services.ErrReviewInProgress)
	case models.StatusReviewed:
		return respondError(c, services.ErrAlreadyReviewed)
	}

	if err := h.dispatcher.Enqueue(c.UserContext(), docID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.ReviewResponse{
		ID:     doc.ID.String(),
		Status: string(doc.Status),
	})
}

// HandleGetDocument handles GET /documents/:id
func (h *ReviewHandler) HandleGetDocument(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	doc, err := h.docRepo.FindWithResult(c.UserContext(), docID)
	if err != nil {
		return respondError(c, err)
	}

	response := models.DocumentResponse{
		ID:        doc.ID.String(),
		Kind:      string(doc.Kind),
		Status:    string(doc.Status),
		MediaType: doc.MediaType,
	}

	// If reviewed, include the result
	if doc.Status == models.StatusReviewed {
		response.Result = doc.Result
	}

	return c.JSON(response)
}
