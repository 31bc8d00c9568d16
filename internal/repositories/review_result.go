package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/career-reviewer/internal/models"
)

type ReviewResultRepository interface {
	SaveDocumentReview(ctx context.Context, result *models.ReviewResult) error
	SaveAnalysis(ctx context.Context, result *models.ReviewResult) error
	FindByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.ReviewResult, error)
	FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]models.ReviewResult, error)
}

type reviewResultRepository struct {
	db *gorm.DB
}

func NewReviewResultRepository(db *gorm.DB) ReviewResultRepository {
	return &reviewResultRepository{db: db}
}

// SaveDocumentReview stores the result and flips the document from reviewing to
// reviewed in one transaction. Nothing is written unless the document is still
// reviewing.
func (r *reviewResultRepository) SaveDocumentReview(ctx context.Context, result *models.ReviewResult) error {
	if result.DocumentID == nil {
		return fmt.Errorf("document review result has no document id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated := tx.Model(&models.ReviewDocument{}).
			Where("id = ? AND status = ?", *result.DocumentID, models.StatusReviewing).
			Updates(map[string]interface{}{
				"status":     models.StatusReviewed,
				"updated_at": time.Now(),
			})
		if updated.Error != nil {
			return fmt.Errorf("failed to mark document reviewed: %w", updated.Error)
		}
		if updated.RowsAffected == 0 {
			return fmt.Errorf("document %s: %w", *result.DocumentID, ErrStatusConflict)
		}

		if err := tx.Where("document_id = ?", *result.DocumentID).Delete(&models.ReviewResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous result: %w", err)
		}

		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create review result: %w", err)
		}

		return nil
	})
}

// SaveAnalysis replaces the student's previous result of the same kind.
func (r *reviewResultRepository) SaveAnalysis(ctx context.Context, result *models.ReviewResult) error {
	if result.StudentID == nil {
		return fmt.Errorf("analysis result has no student id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ? AND kind = ?", *result.StudentID, result.Kind).
			Delete(&models.ReviewResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous analysis: %w", err)
		}

		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create analysis result: %w", err)
		}

		return nil
	})
}

func (r *reviewResultRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.ReviewResult, error) {
	var result models.ReviewResult
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review result for %s: %w", documentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find review result: %w", err)
	}
	return &result, nil
}

func (r *reviewResultRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]models.ReviewResult, error) {
	var results []models.ReviewResult
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find analyses: %w", err)
	}

	return results, nil
}
