package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/catefolio/backend/internal/api/handlers"
	"github.com/catefolio/backend/internal/categorize"
	"github.com/catefolio/backend/internal/config"
	"github.com/catefolio/backend/internal/llm"
	"github.com/catefolio/backend/internal/logger"
	"github.com/catefolio/backend/internal/pipeline"
	"github.com/catefolio/backend/internal/repository"
	"github.com/catefolio/backend/internal/storage"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Persistence
	var repo repository.Store
	switch cfg.StorageBackend {
	case config.BackendFirestore:
		fs, err := repository.NewFirestore(ctx, cfg.ProjectID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Firestore store")
		}
		defer fs.Close()
		repo = fs
	case config.BackendMemory:
		repo = repository.NewMemory(cfg.DefaultCategories)
	default:
		log.Fatal().Str("backend", cfg.StorageBackend).Msg("Unknown storage backend")
	}

	// Blob archive for raw uploads
	var blobs storage.BlobStore = storage.Noop{}
	if cfg.Bucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS blob store")
		}
		defer gcs.Close()
		blobs = gcs
	} else {
		log.Warn().Msg("No bucket configured - raw uploads will not be archived")
	}

	// LLM categorization is best-effort: without credentials the service
	// still runs with the keyword pass only
	var categorizer pipeline.Categorizer
	if client, err := llm.NewClient(ctx, cfg.GeminiModel, log); err != nil {
		log.Warn().Err(err).Msg("LLM unavailable - uploads will use keyword categorization only")
	} else {
		categorizer = categorize.NewAdapter(client, cfg.LLMBatchSize, cfg.LLMConcurrency, log)
	}

	orchestrator := pipeline.New(repo, blobs, categorizer, log)
	router := handlers.NewRouter(orchestrator, repo, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("backend", cfg.StorageBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
