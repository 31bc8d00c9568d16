package services

import (
	"context"
	"fmt"

	"alfredoptarigan/career-reviewer/internal/models"
)

// GuidelineRetriever finds reviewer guidelines relevant to a document.
type GuidelineRetriever interface {
	Retrieve(ctx context.Context, kind models.ReviewKind, text string) (string, error)
}

type guidelineRetriever struct {
	embedder      Embedder
	store         GuidelineStore
	promptBuilder *PromptBuilder
	limit         int
}

func NewGuidelineRetriever(embedder Embedder, store GuidelineStore, limit int) GuidelineRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &guidelineRetriever{
		embedder:      embedder,
		store:         store,
		promptBuilder: NewPromptBuilder(),
		limit:         limit,
	}
}

// Retrieve implements GuidelineRetriever. An empty string means nothing matched.
func (g *guidelineRetriever) Retrieve(ctx context.Context, kind models.ReviewKind, text string) (string, error) {
	query := g.promptBuilder.BuildGuidelineQuery(kind, text)

	embedding, err := g.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := g.store.SearchSimilar(ctx, embedding, string(kind), g.limit)
	if err != nil {
		return "", fmt.Errorf("failed to search guidelines: %w", err)
	}

	return FormatGuidelineContext(results), nil
}
