package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/repositories"
	"alfredoptarigan/career-reviewer/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /documents
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.FormValue("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user_id format",
		})
	}

	kind := models.DocumentKind(c.FormValue("kind", string(models.DocumentResume)))
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("kind must be %q or %q", models.DocumentResume, models.DocumentCoverLetter),
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	key, mediaType, err := h.storageService.SaveFile(file, string(kind))
	if err != nil {
		log.Printf("❌ Failed to save upload %q: %v\n", file.Filename, err)
		return respondError(c, err)
	}

	doc := models.ReviewDocument{
		ID:               uuid.New(),
		UserID:           userID,
		Kind:             kind,
		OriginalFileName: file.Filename,
		MediaType:        mediaType,
		StorageKey:       key,
		Size:             file.Size,
		TargetCompany:    c.FormValue("target_company"),
		TargetRole:       c.FormValue("target_role"),
		Status:           models.StatusUploaded,
	}

	if err := h.docRepo.Create(c.UserContext(), &doc); err != nil {
		log.Printf("❌ Failed to save document record for %q: %v\n", file.Filename, err)
		// Cleanup uploaded file if database insert fails
		if delErr := h.storageService.DeleteFile(key); delErr != nil {
			log.Printf("⚠️  Failed to remove orphaned upload %s: %v\n", key, delErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save document record",
		})
	}

	log.Printf("💾 Stored %s %s (%s, %d bytes)\n", kind, doc.ID, mediaType, file.Size)

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:           doc.ID.String(),
		OriginalName: doc.OriginalFileName,
		Kind:         string(doc.Kind),
		MediaType:    doc.MediaType,
		Status:       string(doc.Status),
	})
}
