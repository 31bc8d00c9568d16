package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/career-reviewer/internal/models"
)

type StudentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (s *studentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find student profile: %w", err)
	}
	return &profile, nil
}
