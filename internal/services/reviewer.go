package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/repositories"
)

type ReviewerService interface {
	ReviewDocument(ctx context.Context, docID uuid.UUID) (*models.ReviewResult, error)
	AnalyzeStudent(ctx context.Context, studentID uuid.UUID, kind models.ReviewKind, req models.AnalysisRequest) (*models.ReviewResult, error)
}

type reviewerService struct {
	docRepo       repositories.DocumentRepository
	resultRepo    repositories.ReviewResultRepository
	studentRepo   repositories.StudentRepository
	storage       StorageService
	extractor     TextExtractor
	modelClient   ModelClient
	guidelines    GuidelineRetriever
	promptBuilder *PromptBuilder
}

type ReviewerDeps struct {
	DocRepo     repositories.DocumentRepository
	ResultRepo  repositories.ReviewResultRepository
	StudentRepo repositories.StudentRepository
	Storage     StorageService
	Extractor   TextExtractor
	ModelClient ModelClient
	// Guidelines may be nil; prompts then render the guideline section as not provided.
	Guidelines GuidelineRetriever
}

func NewReviewerService(deps ReviewerDeps) ReviewerService {
	return &reviewerService{
		docRepo:       deps.DocRepo,
		resultRepo:    deps.ResultRepo,
		studentRepo:   deps.StudentRepo,
		storage:       deps.Storage,
		extractor:     deps.Extractor,
		modelClient:   deps.ModelClient,
		guidelines:    deps.Guidelines,
		promptBuilder: NewPromptBuilder(),
	}
}

// ReviewDocument drives a document from uploaded or failed through reviewing to
// reviewed. Any failure after the document entered reviewing leaves it failed
// and the original error is returned.
func (r *reviewerService) ReviewDocument(ctx context.Context, docID uuid.UUID) (*models.ReviewResult, error) {
	if err := r.beginReview(ctx, docID); err != nil {
		return nil, err
	}

	log.Printf("🔄 Starting review for document %s\n", docID)

	result, err := r.runReview(ctx, docID)
	if err != nil {
		r.markFailed(ctx, docID)
		log.Printf("❌ Review failed for document %s: %v\n", docID, err)
		return nil, err
	}

	log.Printf("✅ Review completed for document %s\n", docID)
	return result, nil
}

func (r *reviewerService) beginReview(ctx context.Context, docID uuid.UUID) error {
	ok, err := r.docRepo.BeginReview(ctx, docID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if ok {
		return nil
	}

	doc, err := r.docRepo.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	switch doc.Status {
	case models.StatusReviewed:
		return fmt.Errorf("%w: %s", ErrAlreadyReviewed, docID)
	default:
		return fmt.Errorf("%w: %s", ErrReviewInProgress, docID)
	}
}

func (r *reviewerService) runReview(ctx context.Context, docID uuid.UUID) (*models.ReviewResult, error) {
	doc, err := r.docRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	log.Printf("📄 Extracting text from %s (%s)\n", docID, doc.MediaType)
	data, err := r.storage.ReadFile(doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	text, err := r.extractor.Extract(data, doc.MediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	kind := doc.Kind.ReviewKind()
	guidelines := r.retrieveGuidelines(ctx, kind, text)

	var prompt string
	switch kind {
	case models.KindCoverLetter:
		prompt = r.promptBuilder.BuildCoverLetterReviewPrompt(CoverLetterReviewInput{
			Text:          text,
			TargetCompany: doc.TargetCompany,
			TargetRole:    doc.TargetRole,
			Guidelines:    guidelines,
		})
	default:
		prompt = r.promptBuilder.BuildResumeReviewPrompt(ResumeReviewInput{
			Text:       text,
			TargetRole: doc.TargetRole,
			Guidelines: guidelines,
		})
	}

	log.Printf("🤖 Reviewing %s %s with the model (prompt %d characters)\n", kind, docID, len(prompt))
	inv, err := r.modelClient.Invoke(ctx, kind, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to review %s: %w", kind, err)
	}
	log.Printf("🤖 %s %s answered after %d attempt(s)\n", kind, docID, inv.Attempts)

	result := newReviewResult(kind, inv)
	result.DocumentID = &docID

	log.Printf("💾 Saving review for document %s\n", docID)
	if err := r.resultRepo.SaveDocumentReview(ctx, result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return result, nil
}

// retrieveGuidelines never fails the review; a retrieval error only drops the
// optional reference material.
func (r *reviewerService) retrieveGuidelines(ctx context.Context, kind models.ReviewKind, text string) string {
	if r.guidelines == nil {
		return ""
	}

	log.Printf("🔍 Retrieving %s guidelines...\n", kind)
	guidelines, err := r.guidelines.Retrieve(ctx, kind, text)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to retrieve %s guidelines: %v\n", kind, err)
		return ""
	}
	return guidelines
}

// markFailed runs even when ctx is already cancelled so an abandoned review is
// not left in reviewing.
func (r *reviewerService) markFailed(ctx context.Context, docID uuid.UUID) {
	if err := r.docRepo.UpdateStatus(context.WithoutCancel(ctx), docID, models.StatusFailed); err != nil {
		log.Printf("❌ Failed to mark document %s as failed: %v\n", docID, err)
	}
}

// AnalyzeStudent runs one profile-based analysis and replaces the student's
// previous result of that kind.
func (r *reviewerService) AnalyzeStudent(ctx context.Context, studentID uuid.UUID, kind models.ReviewKind, req models.AnalysisRequest) (*models.ReviewResult, error) {
	if !kind.IsAnalysis() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	profile, err := r.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
		}
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}

	bundle := profile.Bundle()

	var prompt string
	switch kind {
	case models.KindStudentAnalysis:
		prompt = r.promptBuilder.BuildStudentAnalysisPrompt(StudentAnalysisInput{Profile: bundle})
	case models.KindJobMatching:
		prompt = r.promptBuilder.BuildJobMatchingPrompt(JobMatchingInput{Profile: bundle, Jobs: req.Jobs})
	case models.KindCounseling:
		prompt = r.promptBuilder.BuildCounselingPrompt(CounselingInput{Profile: bundle, Concern: req.Concern, Notes: req.Notes})
	}

	log.Printf("🤖 Running %s for student %s\n", kind, studentID)
	inv, err := r.modelClient.Invoke(ctx, kind, prompt)
	if err != nil {
		log.Printf("❌ %s failed for student %s: %v\n", kind, studentID, err)
		return nil, fmt.Errorf("failed to run %s: %w", kind, err)
	}

	result := newReviewResult(kind, inv)
	result.StudentID = &studentID

	if err := r.resultRepo.SaveAnalysis(ctx, result); err != nil {
		log.Printf("❌ Failed to save %s for student %s: %v\n", kind, studentID, err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	log.Printf("✅ %s completed for student %s after %d attempt(s)\n", kind, studentID, inv.Attempts)
	return result, nil
}

func newReviewResult(kind models.ReviewKind, inv *Invocation) *models.ReviewResult {
	result := &models.ReviewResult{
		Kind:         kind,
		Payload:      datatypes.JSON(inv.Raw),
		ModelName:    inv.Model,
		InputTokens:  inv.Usage.InputTokens,
		OutputTokens: inv.Usage.OutputTokens,
	}
	result.OverallScore = headlineScore(result)
	return result
}

// headlineScore picks the 0-100 score that summarises a payload. Counseling
// suggestions have none.
func headlineScore(result *models.ReviewResult) *int {
	var score int
	switch result.Kind {
	case models.KindResume, models.KindCoverLetter:
		var review models.DocumentReview
		if err := result.DecodePayload(&review); err != nil {
			return nil
		}
		score = review.OverallScore
	case models.KindStudentAnalysis:
		var analysis models.StudentAnalysis
		if err := result.DecodePayload(&analysis); err != nil {
			return nil
		}
		score = analysis.CareerFitScore
	case models.KindJobMatching:
		var matching models.JobMatching
		if err := result.DecodePayload(&matching); err != nil {
			return nil
		}
		score = matching.OverallReadiness
	default:
		return nil
	}
	return &score
}
