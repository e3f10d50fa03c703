package main

import (
	"context"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/internal/providers/embedding"
	"github.com/sandevgo/ragmemory/internal/providers/llm"
	"github.com/sandevgo/ragmemory/internal/providers/rag"
	"github.com/sandevgo/ragmemory/internal/providers/rerank"
	"github.com/sandevgo/ragmemory/internal/service/engine"
	"github.com/sandevgo/ragmemory/internal/service/memory"
	"github.com/sandevgo/ragmemory/internal/service/retrieval"
	"github.com/sandevgo/ragmemory/internal/storage/files"
	"github.com/sandevgo/ragmemory/internal/storage/sqlite"
	"github.com/sandevgo/ragmemory/internal/storage/vector"
	"github.com/sandevgo/ragmemory/pkg/keylock"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/srv"
)

// app is everything the transports share. services are shut down in
// reverse order, so resources come first and the worker pool drains before
// they close.
type app struct {
	appCfg   *config.AppConfig
	engine   *engine.Engine
	services []srv.Service
}

func newApp(ctx context.Context) *app {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	embCfg := config.NewEmbeddingConfig(ctx)
	vecCfg := config.NewVectorConfig(ctx)
	retCfg := config.NewRetrievalConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)

	if err := retCfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid retrieval config")
	}
	if err := memCfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid memory config")
	}

	// 2. Storage
	store, err := vector.NewStore(ctx, vecCfg, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vector store")
	}
	services = append(services, srv.NewCleanup("vector store", store.Close))
	if !store.Connect(ctx) {
		logger.Warn().Str("backend", vecCfg.Backend).Msg("vector store unreachable, retrying on first use")
	}

	repo, closeRepo, err := initMemoryRepository(ctx, appCfg, memCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize memory storage")
	}
	services = append(services, srv.NewCleanup("memory storage", closeRepo))

	convlog, err := files.NewConversationLog(appCfg.GetConversationLogPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize conversation log")
	}

	// 3. Providers
	chat, err := llm.NewChatModel(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	gateway, err := initEmbedding(llmCfg, embCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedding gateway")
	}
	reranker := rerank.NewClient(retCfg.RerankerURL, retCfg.RerankerTimeout)

	chunker, err := rag.NewChunker(rag.ChunkerConfig{
		Size:    retCfg.ChunkSize,
		Overlap: retCfg.ChunkOverlap,
		MinSize: retCfg.MinChunkSize,
	}, rag.WithTokenCounter(rag.NewTiktokenCounter(ctx)))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chunker")
	}

	// 4. Background workers
	// A profile update is two model calls, each with its own retries.
	taskTimeout := 2 * llmCfg.Timeout * 3
	pool := srv.NewPool(appCfg.WorkerCount, appCfg.WorkerQueueSize,
		srv.WithTaskTimeout(taskTimeout),
		srv.WithDropHook(func(name string) {
			metrics.TasksDropped.Inc()
			logger.Warn().Str("task", name).Msg("background queue full, task dropped")
		}),
	)
	services = append(services, pool)

	// 5. Services
	locks := keylock.New()
	pipeline := retrieval.NewPipeline(
		chunker,
		gateway,
		store,
		retrieval.NewCascade(reranker, gateway),
		retCfg.TopK,
		retCfg.TopN,
	)
	consolidator := memory.NewConsolidator(repo, chat, locks, memCfg.WindowSize, memCfg.CompressThreshold)
	profiles := memory.NewProfileManager(repo, chat, locks, pool)

	eng := engine.NewEngine(pipeline, consolidator, profiles, store, convlog, pool)

	logger.Info().
		Str("vector_backend", vecCfg.Backend).
		Str("memory_backend", memCfg.Backend).
		Int("workers", appCfg.WorkerCount).
		Msg("memory engine ready")

	return &app{appCfg: appCfg, engine: eng, services: services}
}

func initMemoryRepository(ctx context.Context, appCfg *config.AppConfig, memCfg *config.MemoryConfig) (core.MemoryRepository, func() error, error) {
	switch memCfg.Backend {
	case config.MemoryBackendSQLite:
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewMemoryRepository(db), db.Close, nil
	default:
		repo, err := files.NewRepository(appCfg.GetUsersPath())
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil
	}
}

func initEmbedding(llmCfg *config.LLMConfig, embCfg *config.EmbeddingConfig) (*embedding.Gateway, error) {
	baseURL, err := llm.ResolveBaseURL(llmCfg.Provider, llmCfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return embedding.NewGateway(embedding.Config{
		BaseURL:   baseURL,
		APIKey:    llmCfg.APIKey,
		Model:     embCfg.Model,
		BatchSize: embCfg.BatchSize,
		Timeout:   embCfg.Timeout,
		RPS:       embCfg.RPS,
	}), nil
}
