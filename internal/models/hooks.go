package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ids are generated client-side so the same schema works on postgres and mysql.

func (d *ReviewDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = StatusUploaded
	}
	return nil
}

func (r *ReviewResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (s *StudentProfile) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
