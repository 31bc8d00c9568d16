package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusReviewing DocumentStatus = "reviewing"
	StatusReviewed  DocumentStatus = "reviewed"
	StatusFailed    DocumentStatus = "failed"
)

type DocumentKind string

const (
	DocumentResume      DocumentKind = "resume"
	DocumentCoverLetter DocumentKind = "cover_letter"
)

func (k DocumentKind) Valid() bool {
	return k == DocumentResume || k == DocumentCoverLetter
}

// ReviewKind returns the review kind used for documents of this kind.
func (k DocumentKind) ReviewKind() ReviewKind {
	if k == DocumentCoverLetter {
		return KindCoverLetter
	}
	return KindResume
}

type ReviewDocument struct {
	ID               uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:char(36);not null;index" json:"user_id"`
	Kind             DocumentKind   `gorm:"type:varchar(32);not null" json:"kind"`
	OriginalFileName string         `gorm:"type:text" json:"original_filename"`
	MediaType        string         `gorm:"type:varchar(255);not null" json:"media_type"`
	StorageKey       string         `gorm:"type:text;not null" json:"-"`
	Size             int64          `json:"size"`
	TargetCompany    string         `gorm:"type:text" json:"target_company,omitempty"`
	TargetRole       string         `gorm:"type:text" json:"target_role,omitempty"`
	Status           DocumentStatus `gorm:"type:varchar(16);not null;default:'uploaded';index" json:"status"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Result *ReviewResult `gorm:"foreignKey:DocumentID" json:"result,omitempty"`
}

func (ReviewDocument) TableName() string {
	return "review_documents"
}
