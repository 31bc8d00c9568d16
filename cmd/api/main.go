package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/career-reviewer/internal/config"
	"alfredoptarigan/career-reviewer/internal/handlers"
	"alfredoptarigan/career-reviewer/internal/repositories"
	"alfredoptarigan/career-reviewer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	docRepo := repositories.NewDocumentRepository(db)
	resultRepo := repositories.NewReviewResultRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	extractor := services.NewTextExtractor(services.NewPDFParserService(), min(cfg.Storage.MaxFileSize, services.MaxDocumentSize))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, embedder := initModel(cfg)
	modelClient, err := services.NewModelClient(generator, services.ModelClientConfig{
		AttemptTimeout: cfg.Model.AttemptTimeout,
		MaxRetries:     cfg.Model.MaxRetries,
		RetryDelay:     cfg.Model.RetryDelay,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize model client: %v", err)
	}
	log.Printf("✅ Model client initialized (%s)\n", cfg.Model.Provider)

	var guidelines services.GuidelineRetriever
	if cfg.Guidelines.Enabled {
		guidelines = initGuidelines(ctx, cfg, embedder)
	}

	reviewer := services.NewReviewerService(services.ReviewerDeps{
		DocRepo:     docRepo,
		ResultRepo:  resultRepo,
		StudentRepo: studentRepo,
		Storage:     storageService,
		Extractor:   extractor,
		ModelClient: modelClient,
		Guidelines:  guidelines,
	})
	log.Println("✅ Reviewer service initialized")

	// Initialize dispatcher
	var dispatcher services.Dispatcher
	switch cfg.Worker.Backend {
	case config.BackendAMQP:
		dispatcher = services.NewAMQPDispatcher(cfg.Worker.RabbitMQURL, cfg.Worker.Queue, reviewer, cfg.Worker.Concurrency)
	default:
		dispatcher = services.NewWorker(reviewer, cfg.Worker.Concurrency, cfg.Worker.QueueSize)
	}
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatalf("❌ Failed to start dispatcher: %v", err)
	}

	// Fail reviews abandoned by an earlier process so they can be resubmitted
	sweeper := services.NewStaleReviewSweeper(docRepo, cfg.Worker.StaleAfter, cfg.Worker.SweepInterval)
	go sweeper.Run(ctx)

	// Initialize Handlers
	h := handlers.Handlers{
		Upload:   handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize),
		Review:   handlers.NewReviewHandler(docRepo, dispatcher),
		Analysis: handlers.NewAnalysisHandler(reviewer, resultRepo),
	}
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Career Reviewer API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	handlers.RegisterRoutes(app.Group("/api/v1"), h)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Career Reviewer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/documents",
				"POST /api/v1/documents/:id/review",
				"GET /api/v1/documents/:id",
				"POST /api/v1/students/:id/analyses/:kind",
				"GET /api/v1/students/:id/analyses",
			},
		})
	})

	// Graceful shutdown. Workers finish (and record failures) before the
	// server stops, and main waits for both.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		log.Println("\n🛑 Shutting down server...")
		dispatcher.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
		dispatcher.Stop()
		os.Exit(1)
	}

	<-shutdownDone
	log.Println("✅ Server stopped")
}

// initModel builds the generator for the configured provider. The embedder is
// Gemini's and is nil when no Gemini key is configured.
func initModel(cfg *config.Config) (services.Generator, services.Embedder) {
	var embedder services.Embedder
	var gemini services.GeminiService
	if cfg.Model.GeminiAPIKey != "" {
		var err error
		gemini, err = services.NewGeminiService(services.GeminiOptions{
			APIKey:      cfg.Model.GeminiAPIKey,
			Model:       cfg.Model.GeminiModel,
			EmbedModel:  cfg.Model.EmbedModel,
			Temperature: cfg.Model.Temperature,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
		embedder = gemini
		log.Println("✅ Gemini AI initialized successfully")
	}

	if cfg.Model.Provider == config.ProviderOpenAI {
		return services.NewOpenAIService(services.OpenAIOptions{
			APIKey:      cfg.Model.OpenAIAPIKey,
			BaseURL:     cfg.Model.OpenAIBaseURL,
			Model:       cfg.Model.OpenAIModel,
			Temperature: cfg.Model.Temperature,
		}), embedder
	}

	return gemini, embedder
}

func initGuidelines(ctx context.Context, cfg *config.Config, embedder services.Embedder) services.GuidelineRetriever {
	store, err := services.NewQdrantService(cfg.Guidelines.QdrantURL, cfg.Guidelines.APIKey, cfg.Guidelines.Collection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := store.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
	}
	log.Println("✅ Qdrant initialized successfully")

	return services.NewGuidelineRetriever(embedder, store, cfg.Guidelines.Limit)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
