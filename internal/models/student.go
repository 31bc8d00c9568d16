package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StudentProfile is owned by the profile screens; the review pipeline only reads it.
type StudentProfile struct {
	ID            uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        uuid.UUID                   `gorm:"type:char(36);not null;index" json:"user_id"`
	Name          string                      `gorm:"type:text" json:"name"`
	School        string                      `gorm:"type:text" json:"school"`
	Department    string                      `gorm:"type:text" json:"department"`
	Grade         string                      `gorm:"type:varchar(32)" json:"grade"`
	TargetField   string                      `gorm:"type:text" json:"target_field"`
	TargetCompany string                      `gorm:"type:text" json:"target_company"`
	Bio           string                      `gorm:"type:text" json:"bio"`
	Goals         datatypes.JSONSlice[string] `json:"goals"`
	Skills        datatypes.JSONSlice[string] `json:"skills"`
	Projects      datatypes.JSONSlice[string] `json:"projects"`
	Certificates  datatypes.JSONSlice[string] `json:"certificates"`
	CreatedAt     time.Time                   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// ProfileBundle is the immutable view of a profile handed to the prompt builder.
type ProfileBundle struct {
	Name          string
	School        string
	Department    string
	Grade         string
	TargetField   string
	TargetCompany string
	Bio           string
	Goals         []string
	Skills        []string
	Projects      []string
	Certificates  []string
}

func (p *StudentProfile) Bundle() ProfileBundle {
	return ProfileBundle{
		Name:          p.Name,
		School:        p.School,
		Department:    p.Department,
		Grade:         p.Grade,
		TargetField:   p.TargetField,
		TargetCompany: p.TargetCompany,
		Bio:           p.Bio,
		Goals:         append([]string(nil), p.Goals...),
		Skills:        append([]string(nil), p.Skills...),
		Projects:      append([]string(nil), p.Projects...),
		Certificates:  append([]string(nil), p.Certificates...),
	}
}

// JobPosting is a caller-supplied opening used by job-matching analyses.
type JobPosting struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Requirements string `json:"requirements"`
	Description  string `json:"description"`
}
