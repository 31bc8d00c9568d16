package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// GuidelineStore holds embedded reviewer-guideline chunks, tagged with the
// review kind they apply to.
type GuidelineStore interface {
	InitCollection(ctx context.Context) error
	UpsertGuideline(ctx context.Context, source string, chunkIndex int, kind string, text string, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, kind string, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
}

type SearchResult struct {
	ID     string
	Score  float32
	Text   string
	Kind   string
	Source string
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantService(urlStr, apiKey, collectionName string) (GuidelineStore, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port unless the URL says otherwise
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
	}, nil
}

// InitCollection implements GuidelineStore.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertGuideline implements GuidelineStore. Point ids are derived from the
// source and chunk index, so re-ingesting a file overwrites its chunks.
func (q *qdrantService) UpsertGuideline(ctx context.Context, source string, chunkIndex int, kind string, text string, embedding []float32) error {
	pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, chunkIndex)))

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointID.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"source": source,
			"kind":   kind,
			"text":   text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchSimilar implements GuidelineStore.
func (q *qdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, kind string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if kind != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("kind", kind),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			ID:     point.GetId().GetUuid(),
			Score:  point.GetScore(),
			Text:   payloadString(point.GetPayload(), "text"),
			Kind:   payloadString(point.GetPayload(), "kind"),
			Source: payloadString(point.GetPayload(), "source"),
		})
	}

	return results, nil
}

// DeleteSource implements GuidelineStore.
func (q *qdrantService) DeleteSource(ctx context.Context, source string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("source", source),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete guideline source: %w", err)
	}

	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
