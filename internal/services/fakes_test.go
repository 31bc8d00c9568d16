package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/repositories"
)

// fakeStore backs both the document and the result repository so the
// status/result pairing can be checked in one place.
type fakeStore struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*models.ReviewDocument
	results   map[uuid.UUID]*models.ReviewResult
	analyses  map[string]*models.ReviewResult
	saveErr   error
	statusLog []models.DocumentStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[uuid.UUID]*models.ReviewDocument),
		results:  make(map[uuid.UUID]*models.ReviewResult),
		analyses: make(map[string]*models.ReviewResult),
	}
}

func (s *fakeStore) addDocument(doc models.ReviewDocument) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.docs[doc.ID] = &doc
	return doc.ID
}

func (s *fakeStore) status(id uuid.UUID) models.DocumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id].Status
}

func (s *fakeStore) resultCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; ok {
		return 1
	}
	return 0
}

func (s *fakeStore) setStatus(id uuid.UUID, status models.DocumentStatus) {
	s.docs[id].Status = status
	s.statusLog = append(s.statusLog, status)
}

func (s *fakeStore) Create(ctx context.Context, doc *models.ReviewDocument) error {
	s.addDocument(*doc)
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, repositories.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeStore) FindWithResult(ctx context.Context, id uuid.UUID) (*models.ReviewDocument, error) {
	doc, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Result = s.results[id]
	return doc, nil
}

func (s *fakeStore) BeginReview(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || (doc.Status != models.StatusUploaded && doc.Status != models.StatusFailed) {
		return false, nil
	}
	s.setStatus(id, models.StatusReviewing)
	return true, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return repositories.ErrNotFound
	}
	s.setStatus(id, status)
	return nil
}

func (s *fakeStore) FailStaleReviews(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, doc := range s.docs {
		if doc.Status == models.StatusReviewing && doc.UpdatedAt.Before(before) {
			s.setStatus(id, models.StatusFailed)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) SaveDocumentReview(ctx context.Context, result *models.ReviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	id := *result.DocumentID
	if s.docs[id].Status != models.StatusReviewing {
		return repositories.ErrStatusConflict
	}
	s.setStatus(id, models.StatusReviewed)
	s.results[id] = result
	return nil
}

func (s *fakeStore) SaveAnalysis(ctx context.Context, result *models.ReviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.analyses[result.StudentID.String()+"/"+string(result.Kind)] = result
	return nil
}

func (s *fakeStore) FindByDocumentID(ctx context.Context, id uuid.UUID) (*models.ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) FindByStudentID(ctx context.Context, id uuid.UUID) ([]models.ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReviewResult
	for _, r := range s.analyses {
		if *r.StudentID == id {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeStudents map[uuid.UUID]*models.StudentProfile

func (f fakeStudents) FindByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	p, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
	}
	return p, nil
}

type fakeBlobs map[string][]byte

func (f fakeBlobs) SaveFile(file *multipart.FileHeader, prefix string) (string, string, error) {
	return "", "", errors.New("not supported")
}

func (f fakeBlobs) ReadFile(key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, fmt.Errorf("blob %q not found", key)
	}
	return data, nil
}

func (f fakeBlobs) GetFilePath(key string) string { return key }
func (f fakeBlobs) DeleteFile(key string) error   { delete(f, key); return nil }
func (f fakeBlobs) EnsureUploadDir() error        { return nil }

// fakeModelClient answers with respond and records every prompt.
type fakeModelClient struct {
	mu      sync.Mutex
	respond func(kind models.ReviewKind, prompt string) (*Invocation, error)
	prompts []string
}

func (f *fakeModelClient) Invoke(ctx context.Context, kind models.ReviewKind, prompt string) (*Invocation, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(kind, prompt)
}

func (f *fakeModelClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeRetriever struct {
	text string
	err  error
}

func (f fakeRetriever) Retrieve(ctx context.Context, kind models.ReviewKind, text string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	err     error
	queries []string
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeGuidelineStore struct {
	results  []SearchResult
	err      error
	lastKind string
}

func (f *fakeGuidelineStore) InitCollection(ctx context.Context) error { return nil }
func (f *fakeGuidelineStore) UpsertGuideline(ctx context.Context, source string, chunkIndex int, kind string, text string, embedding []float32) error {
	return nil
}
func (f *fakeGuidelineStore) DeleteSource(ctx context.Context, source string) error { return nil }
func (f *fakeGuidelineStore) SearchSimilar(ctx context.Context, emb []float32, kind string, limit int) ([]SearchResult, error) {
	f.lastKind = kind
	return f.results, f.err
}

// fakeReviewer records reviewed document ids for the dispatcher tests.
type fakeReviewer struct {
	mu   sync.Mutex
	seen []uuid.UUID
	done chan uuid.UUID
}

func (f *fakeReviewer) ReviewDocument(ctx context.Context, docID uuid.UUID) (*models.ReviewResult, error) {
	f.mu.Lock()
	f.seen = append(f.seen, docID)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- docID
	}
	return &models.ReviewResult{}, nil
}

func (f *fakeReviewer) AnalyzeStudent(ctx context.Context, studentID uuid.UUID, kind models.ReviewKind, req models.AnalysisRequest) (*models.ReviewResult, error) {
	return nil, errors.New("not supported")
}
