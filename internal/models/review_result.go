package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReviewKind string

const (
	KindResume          ReviewKind = "resume"
	KindCoverLetter     ReviewKind = "cover_letter"
	KindStudentAnalysis ReviewKind = "student_analysis"
	KindJobMatching     ReviewKind = "job_matching"
	KindCounseling      ReviewKind = "counseling"
)

// AnalysisKinds are the review kinds computed from a student profile rather than a document.
var AnalysisKinds = []ReviewKind{KindStudentAnalysis, KindJobMatching, KindCounseling}

func (k ReviewKind) IsAnalysis() bool {
	for _, a := range AnalysisKinds {
		if a == k {
			return true
		}
	}
	return false
}

// ReviewResult is written once per successful model invocation. Document reviews
// link through DocumentID (1:1); student analyses link through StudentID and keep
// one row per kind.
type ReviewResult struct {
	ID           uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	DocumentID   *uuid.UUID     `gorm:"type:char(36);uniqueIndex" json:"document_id,omitempty"`
	StudentID    *uuid.UUID     `gorm:"type:char(36);uniqueIndex:idx_student_analysis_kind" json:"student_id,omitempty"`
	Kind         ReviewKind     `gorm:"type:varchar(32);not null;uniqueIndex:idx_student_analysis_kind" json:"kind"`
	OverallScore *int           `json:"overall_score,omitempty"`
	Payload      datatypes.JSON `gorm:"not null" json:"payload"`
	ModelName    string         `gorm:"type:varchar(128)" json:"model"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ReviewResult) TableName() string {
	return "review_results"
}

// DecodePayload unmarshals the stored payload into one of the typed views in
// payload.go.
func (r *ReviewResult) DecodePayload(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", r.Kind, err)
	}
	return nil
}
