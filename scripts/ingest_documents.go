package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/career-reviewer/internal/config"
	"alfredoptarigan/career-reviewer/internal/models"
	"alfredoptarigan/career-reviewer/internal/services"
)

type ingestOptions struct {
	dir       string
	chunkSize int
	overlap   int
	parallel  int
}

func main() {
	opts := ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest_documents",
		Short: "Chunk, embed and store reviewer guidelines",
		Long: "Reads guideline documents from <dir>/resume and <dir>/cover_letter, " +
			"splits them into chunks and upserts their embeddings into Qdrant.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "./guidelines", "directory with one sub-directory per review kind")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 1000, "maximum chunk size in characters")
	cmd.Flags().IntVar(&opts.overlap, "overlap", 200, "characters repeated between consecutive chunks")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 4, "concurrent embedding requests")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts ingestOptions) error {
	log.Println("🚀 Starting guideline ingestion...")

	// Load configuration
	cfg := config.Load()
	if cfg.Model.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for embeddings")
	}

	// Initialize services
	geminiService, err := services.NewGeminiService(services.GeminiOptions{
		APIKey:     cfg.Model.GeminiAPIKey,
		Model:      cfg.Model.GeminiModel,
		EmbedModel: cfg.Model.EmbedModel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini: %w", err)
	}

	store, err := services.NewQdrantService(cfg.Guidelines.QdrantURL, cfg.Guidelines.APIKey, cfg.Guidelines.Collection)
	if err != nil {
		return fmt.Errorf("failed to initialize Qdrant: %w", err)
	}

	if err := store.InitCollection(ctx); err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}

	extractor := services.NewTextExtractor(services.NewPDFParserService(), cfg.Storage.MaxFileSize)
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, kind := range []models.ReviewKind{models.KindResume, models.KindCoverLetter} {
		paths, err := filepath.Glob(filepath.Join(opts.dir, string(kind), "*"))
		if err != nil {
			return fmt.Errorf("failed to list %s guidelines: %w", kind, err)
		}

		for _, path := range paths {
			log.Printf("\n📄 Processing: %s", path)
			log.Printf("   Kind: %s", kind)

			source := string(kind) + "/" + filepath.Base(path)
			if err := ingestFile(ctx, opts, path, source, kind, extractor, chunker, geminiService, store); err != nil {
				log.Printf("   ❌ %v", err)
				failCount++
				continue
			}

			log.Printf("   ✅ Successfully ingested %s", source)
			successCount++
		}
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		return fmt.Errorf("%d documents failed to ingest", failCount)
	}

	log.Println("✅ All guidelines ingested successfully!")
	return nil
}

func ingestFile(
	ctx context.Context,
	opts ingestOptions,
	path, source string,
	kind models.ReviewKind,
	extractor services.TextExtractor,
	chunker services.TextChunker,
	embedder services.Embedder,
	store services.GuidelineStore,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	log.Printf("   📖 Extracting text...")
	text, err := extractor.Extract(data, mimetype.Detect(data).String())
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}
	text = services.CleanText(text)

	chunks := chunker.ChunkText(text, opts.chunkSize, opts.overlap)
	log.Printf("   ✂️  Created %d chunks from %d characters", len(chunks), len(text))

	// Re-ingesting a file replaces its chunks.
	if err := store.DeleteSource(ctx, source); err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	log.Printf("   🔄 Embedding and storing chunks...")
	var stored atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))

	for i, chunk := range chunks {
		g.Go(func() error {
			embedding, err := embedder.GenerateEmbedding(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to generate embedding for chunk %d: %w", i+1, err)
			}

			if err := store.UpsertGuideline(gctx, source, i, string(kind), chunk, embedding); err != nil {
				return fmt.Errorf("failed to store chunk %d: %w", i+1, err)
			}

			if n := stored.Add(1); n%5 == 0 || int(n) == len(chunks) {
				log.Printf("   📊 Progress: %d/%d chunks stored", n, len(chunks))
			}
			return nil
		})
	}

	return g.Wait()
}
