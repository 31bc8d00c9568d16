package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText splits guideline text into chunks of at most maxChunkSize runes.
// Paragraphs are kept whole when they fit; longer ones are split on sentence
// boundaries. Each chunk after the first starts with the last overlap runes of
// the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var units []unit
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			units = append(units, unit{text: para, sep: "\n\n"})
			continue
		}
		for _, sentence := range splitIntoSentences(para) {
			units = append(units, unit{text: sentence, sep: " "})
		}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, u := range units {
		uLen := utf8.RuneCountInString(u.text)
		if currentLen > 0 && currentLen+len(u.sep)+uLen > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0

			if tail := lastRunes(chunks[len(chunks)-1], overlap); tail != "" {
				current.WriteString(tail)
				currentLen = utf8.RuneCountInString(tail)
			}
		}

		if currentLen > 0 {
			current.WriteString(u.sep)
			currentLen += len(u.sep)
		}
		current.WriteString(u.text)
		currentLen += uLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

type unit struct {
	text string
	sep  string
}

func splitIntoSentences(text string) []string {
	var result []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				result = append(result, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
