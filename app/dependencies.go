// Package app is the central wiring point for dependency injection.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/config"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/embedding"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/session"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/vectorstore"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/vectorstore/qdrant"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/repositories/postgres"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/audit"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/orchestrator"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/prompt"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers/openai"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/retrieval"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools/hospitals"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools/prediction"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools/websearch"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil when telemetry persistence is disabled

	// Pipeline
	Index        vectorstore.VectorIndex
	Embedder     embedding.Embedder
	Retriever    *retrieval.RetrievalService
	Sessions     session.Store
	Registry     *tools.Registry
	Provider     providers.Provider
	Audit        *audit.Service // nil when telemetry persistence is disabled
	Orchestrator *orchestrator.Orchestrator
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initVectorIndex(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	deps.initEmbedder(cfg)
	deps.initSessions(cfg)

	if err := deps.initTelemetry(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	deps.Retriever = retrieval.NewRetrievalService(deps.Embedder, deps.Index, logger)
	deps.Provider = openai.New(openai.Config{
		BaseURL:    cfg.Providers.GitHubModels.BaseURL,
		APIKey:     cfg.Providers.GitHubModels.Token,
		Timeout:    cfg.Providers.GitHubModels.Timeout,
		MaxRetries: cfg.Providers.GitHubModels.MaxRetries,
		RetryDelay: cfg.Providers.GitHubModels.RetryDelay,
	})

	if err := deps.initTools(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tools: %w", err)
	}

	deps.initOrchestrator(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initVectorIndex connects to Qdrant, or falls back to the in-memory
// index when no URL is configured (development only).
func (d *Dependencies) initVectorIndex(cfg *config.Config) error {
	if cfg.Qdrant.URL == "" {
		d.Logger.Warn("QDRANT_URL not set, using in-memory vector index")
		d.Index = vectorstore.NewMemoryIndex()
		return nil
	}

	client, err := qdrant.New(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		Collection: cfg.Qdrant.Collection,
		APIKey:     cfg.Qdrant.APIKey,
	})
	if err != nil {
		return err
	}

	d.Index = client
	d.Logger.Info("connected to qdrant",
		zap.String("collection", cfg.Qdrant.Collection))
	return nil
}

func (d *Dependencies) initEmbedder(cfg *config.Config) {
	d.Embedder = embedding.NewOpenAIEmbedder(embedding.Config{
		BaseURL:    cfg.Providers.Embeddings.BaseURL,
		APIKey:     cfg.Providers.Embeddings.APIKey,
		Model:      cfg.Providers.Embeddings.Model,
		Timeout:    cfg.Providers.Embeddings.Timeout,
		MaxRetries: cfg.Providers.Embeddings.MaxRetries,
	}, d.Logger)
}

// initSessions picks the Redis history store when configured, the
// in-memory store otherwise.
func (d *Dependencies) initSessions(cfg *config.Config) {
	if cfg.Redis.Addr == "" {
		d.Logger.Info("REDIS_ADDR not set, using in-memory session store")
		d.Sessions = session.NewMemoryStore(cfg.Generation.MaxHistory)
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	d.Sessions = session.NewRedisStore(client, cfg.Generation.MaxHistory, cfg.Redis.TTL)
	d.Logger.Info("using redis session store", zap.String("addr", cfg.Redis.Addr))
}

// initTelemetry wires the optional turn-record persistence. Without a
// configured database, turn telemetry only appears in logs.
func (d *Dependencies) initTelemetry(ctx context.Context, cfg *config.Config) error {
	if cfg.AuditDatabase == nil {
		d.Logger.Info("no telemetry database configured, turn records will not be persisted")
		return nil
	}

	db, err := postgres.NewDB(cfg.AuditDatabase, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return err
	}

	repo := postgres.NewTurnRecordRepository(db, d.Logger)
	svc := audit.NewService(repo, d.Logger, audit.DefaultConfig())
	if err := svc.Start(); err != nil {
		db.Close()
		return err
	}

	d.DB = db
	d.Audit = svc
	return nil
}

func (d *Dependencies) initTools(cfg *config.Config) error {
	registry := tools.NewRegistry()

	builtins := []tools.Tool{
		hospitals.New(hospitals.Config{Timeout: cfg.Tools.Timeout}, d.Logger),
		websearch.New(websearch.Config{Timeout: cfg.Tools.Timeout}, d.Logger),
		prediction.New(d.Retriever, retrieval.Options{
			TopK:       10,
			MinScore:   float32(cfg.Retrieval.MinScore),
			Oversample: cfg.Retrieval.Oversample,
		}, d.Logger),
	}

	for _, tool := range builtins {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Name(), err)
		}
	}

	d.Registry = registry
	d.Logger.Info("registered built-in tools", zap.Int("count", registry.Count()))
	return nil
}

func (d *Dependencies) initOrchestrator(cfg *config.Config) {
	var recorder orchestrator.TurnRecorder
	if d.Audit != nil {
		recorder = d.Audit
	}

	d.Orchestrator = orchestrator.New(
		d.Retriever,
		prompt.NewAssembler(cfg.Generation.PromptBudget),
		d.Registry,
		tools.NewInvoker(d.Registry, cfg.Tools.Timeout, d.Logger),
		d.Provider,
		d.Sessions,
		recorder,
		orchestrator.Options{
			Model:         cfg.Generation.Model,
			Temperature:   cfg.Generation.Temperature,
			MaxTokens:     cfg.Generation.MaxTokens,
			MaxToolRounds: cfg.Generation.MaxToolRounds,
			Retrieval: retrieval.Options{
				TopK:          cfg.Retrieval.TopK,
				MinScore:      float32(cfg.Retrieval.MinScore),
				Oversample:    cfg.Retrieval.Oversample,
				HistoryWindow: cfg.Retrieval.HistoryWindow,
			},
		},
		d.Logger,
	)
}

// Close releases all resources in reverse initialization order
func (d *Dependencies) Close() {
	if d.Audit != nil {
		if err := d.Audit.Stop(10 * time.Second); err != nil {
			d.Logger.Warn("audit service shutdown", zap.Error(err))
		}
	}
	if d.Sessions != nil {
		if err := d.Sessions.Close(); err != nil {
			d.Logger.Warn("session store close", zap.Error(err))
		}
	}
	if d.Index != nil {
		if err := d.Index.Close(); err != nil {
			d.Logger.Warn("vector index close", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("database close", zap.Error(err))
		}
	}
}
