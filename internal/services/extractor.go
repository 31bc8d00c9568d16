package services

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const MaxDocumentSize int64 = 10 << 20

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeText = "text/plain"
)

// SupportedMediaTypes lists the declared types the extractor accepts.
var SupportedMediaTypes = []string{MediaTypePDF, MediaTypeDOCX, MediaTypeText}

type TextExtractor interface {
	Extract(data []byte, mediaType string) (string, error)
}

type parseFunc func(data []byte) (string, error)

type textExtractor struct {
	maxSize int64
	parsers map[string]parseFunc
}

func NewTextExtractor(pdfParser PDFParserService, maxSize int64) TextExtractor {
	return newTextExtractor(maxSize, map[string]parseFunc{
		MediaTypePDF:  pdfParser.ExtractText,
		MediaTypeDOCX: extractDocxText,
		MediaTypeText: decodePlainText,
	})
}

// newTextExtractor never accepts more than MaxDocumentSize, whatever the
// configured upload limit.
func newTextExtractor(maxSize int64, parsers map[string]parseFunc) *textExtractor {
	if maxSize <= 0 || maxSize > MaxDocumentSize {
		maxSize = MaxDocumentSize
	}
	return &textExtractor{maxSize: maxSize, parsers: parsers}
}

// Extract implements TextExtractor.
func (e *textExtractor) Extract(data []byte, mediaType string) (string, error) {
	if int64(len(data)) > e.maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(data), e.maxSize)
	}

	parse, ok := e.parsers[NormalizeMediaType(mediaType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}

	text, err := parse(data)
	if err != nil {
		if errors.Is(err, ErrEmptyContent) {
			return "", fmt.Errorf("%w (%s)", ErrEmptyContent, mediaType)
		}
		return "", fmt.Errorf("%w (%s): %w", ErrUnreadableDocument, mediaType, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w (%s)", ErrEmptyContent, mediaType)
	}

	return text, nil
}

// NormalizeMediaType strips parameters and lowercases a media type.
func NormalizeMediaType(mediaType string) string {
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// decodePlainText decodes UTF-8, or UTF-16 when a byte order mark says so.
// Invalid sequences become U+FFFD.
func decodePlainText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
