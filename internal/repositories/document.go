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

type DocumentRepository interface {
	Create(ctx context.Context, document *models.ReviewDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error)
	FindWithResult(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error)
	BeginReview(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error
	FailStaleReviews(ctx context.Context, before time.Time) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(ctx context.Context, document *models.ReviewDocument) error {
	if err := d.db.WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error) {
	var doc models.ReviewDocument
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindWithResult implements DocumentRepository.
func (d *documentRepository) FindWithResult(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error) {
	var doc models.ReviewDocument
	if err := d.db.WithContext(ctx).Preload("Result").Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// BeginReview moves a document into reviewing only if it is currently uploaded
// or failed. It reports false when no row was eligible.
func (d *documentRepository) BeginReview(ctx context.Context, id uuid.UUID) (bool, error) {
	result := d.db.WithContext(ctx).Model(&models.ReviewDocument{}).
		Where("id = ? AND status IN ?", id, []models.DocumentStatus{models.StatusUploaded, models.StatusFailed}).
		Updates(map[string]interface{}{
			"status":     models.StatusReviewing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to begin review: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// UpdateStatus implements DocumentRepository.
func (d *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	result := d.db.WithContext(ctx).Model(&models.ReviewDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	return nil
}

// FailStaleReviews moves documents that entered reviewing before the cutoff and
// never left it to failed, so they can be resubmitted.
func (d *documentRepository) FailStaleReviews(ctx context.Context, before time.Time) (int64, error) {
	result := d.db.WithContext(ctx).Model(&models.ReviewDocument{}).
		Where("status = ? AND updated_at < ?", models.StatusReviewing, before).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to fail stale reviews: %w", result.Error)
	}

	return result.RowsAffected, nil
}
