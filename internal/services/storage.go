package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, prefix string) (key string, mediaType string, err error)
	ReadFile(key string) ([]byte, error)
	GetFilePath(key string) string
	DeleteFile(key string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
	maxSize    int64
	copy       func(dst io.Writer, src io.Reader) (int64, error)
}

func NewStorageService(uploadPath string, maxSize int64) StorageService {
	if maxSize <= 0 {
		maxSize = MaxDocumentSize
	}
	return &storageService{
		uploadPath: uploadPath,
		maxSize:    maxSize,
		copy:       io.Copy,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveFile sniffs the upload's media type, rejects anything the extractor
// cannot read and stores it under a generated key.
func (s *storageService) SaveFile(file *multipart.FileHeader, prefix string) (string, string, error) {
	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", "", fmt.Errorf("failed to detect file type: %w", err)
	}
	mediaType := NormalizeMediaType(mtype.String())
	if !slices.Contains(SupportedMediaTypes, mediaType) {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mtype.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("failed to rewind uploaded file: %w", err)
	}

	// Generate the unique filename
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), mtype.Extension())
	filePath := s.GetFilePath(key)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := s.copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return key, mediaType, nil
}

// ReadFile returns at most maxSize+1 bytes so oversized files still fail the
// extractor's size check without being read in full.
func (s *storageService) ReadFile(key string) ([]byte, error) {
	f, err := os.Open(s.GetFilePath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

func (s *storageService) GetFilePath(key string) string {
	return filepath.Join(s.uploadPath, filepath.Base(key))
}

func (s *storageService) DeleteFile(key string) error {
	if err := os.Remove(s.GetFilePath(key)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
