package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/app"
	"pdfchat/internal/cache"
	"pdfchat/internal/config"
	"pdfchat/internal/embedding"
	"pdfchat/internal/index"
	"pdfchat/internal/ingest"
	"pdfchat/internal/prompt"
	"pdfchat/internal/session"
)

// App wires the in-memory registries and services together. Everything is
// rebuilt from nothing on startup; Close purges the uploaded files.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Documents *app.DocumentService
	Chat      *app.ChatService

	StartedAt time.Time
}

func New() (*App, error) {
	// Optional .env for local development; the config loader reads the
	// environment afterwards.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	// Missing agent credentials must stop the process before any session
	// could be created.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	if err := os.MkdirAll(cfg.App.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	registry := index.NewRegistry()
	retriever := index.NewRetriever(registry, embedder)
	ingestor := ingest.NewIngestor(embedder, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	documents := app.NewDocumentService(registry, ingestor, cfg.App.UploadDir, logger)

	clientFactory := func() (ai.ModelClient, error) {
		return ai.NewDualEndpointClient(cfg.Agent.APIKey, cfg.Agent.InvokeURL, cfg.Agent.StreamURL)
	}
	sessions := session.NewStore(clientFactory)
	assembler := prompt.NewAssembler(prompt.HistoryPolicy{MaxMessages: cfg.Retrieval.HistoryWindow})
	chat := app.NewChatService(
		sessions,
		registry,
		retriever,
		assembler,
		clientFactory,
		cfg.Retrieval.ChatTopK,
		cfg.Retrieval.AskTopK,
		logger,
	)

	logger.Info("application wired",
		zap.String("env", cfg.App.Env),
		zap.String("upload_dir", cfg.App.UploadDir),
		zap.Bool("remote_embedder", cfg.Embedding.BaseURL != ""),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Documents: documents,
		Chat:      chat,
		StartedAt: time.Now(),
	}, nil
}

// Close purges uploaded document storage. Indexes and sessions are plain
// memory and need no teardown.
func (a *App) Close() error {
	if a.Documents != nil {
		if err := a.Documents.Purge(); err != nil {
			return fmt.Errorf("purge uploads failed: %w", err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	var base embedding.Embedder
	if cfg.Embedding.BaseURL != "" {
		base = embedding.NewRemoteEmbedder(
			cfg.Embedding.BaseURL,
			cfg.Embedding.APIKey,
			cfg.Embedding.Model,
			cfg.Embedding.Dimension,
		)
	} else {
		base = embedding.NewLocalEmbedder(cfg.Embedding.Dimension)
	}

	cached, err := cache.NewCachedEmbedder(base, cfg.Embedding.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache failed: %w", err)
	}
	return cached, nil
}
