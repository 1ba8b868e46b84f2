// Package app is the composition root of the document QA service: it turns
// an AppConfig into a ready Service, HTTP router and gRPC health server.
package app

import (
	"DocQA/backend/go/internal/config"
	kafkadb "DocQA/backend/go/internal/database/kafka"
	"DocQA/backend/go/internal/database/milvus"
	miniodb "DocQA/backend/go/internal/database/minio"
	redisdb "DocQA/backend/go/internal/database/redis"
	"DocQA/backend/go/internal/database/sqldb"
	"DocQA/backend/go/internal/embedding"
	"DocQA/backend/go/internal/llm"
	"DocQA/backend/go/internal/rag_service/api"
	"DocQA/backend/go/internal/rag_service/cache"
	"DocQA/backend/go/internal/rag_service/events"
	"DocQA/backend/go/internal/rag_service/rag/dal"
	"DocQA/backend/go/internal/rag_service/rag/filestore"
	"DocQA/backend/go/internal/rag_service/rag/interfaces"
	"DocQA/backend/go/internal/rag_service/rag/loaders"
	"DocQA/backend/go/internal/rag_service/rag/splitters"
	"DocQA/backend/go/internal/rag_service/rag/storages/vectorstore"
	"DocQA/backend/go/internal/rag_service/rag/synthesizers"
	"DocQA/backend/go/internal/rag_service/service"
	"context"
	"errors"
	"fmt"
	"io"

	"DocQA/backend/go/pkg/circuitbreaker"
	"DocQA/backend/go/pkg/logger"
	"DocQA/backend/go/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// App holds the constructed components and the resources to release.
type App struct {
	Config  *config.AppConfig
	Service *service.Service
	Router  *gin.Engine

	log     *logger.Logger
	closers []func() error
}

// New builds every component named by cfg. On error, whatever was already
// opened is closed again.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (_ *App, err error) {
	a := &App{Config: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// 1. Relational store
	db, err := sqldb.Open(&cfg.Databases.Relational)
	if err != nil {
		return nil, err
	}
	a.onClose(func() error { return sqldb.Close(db) })
	if err := dal.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate relational schema: %w", err)
	}

	// 2. Vector store with its embedding function
	vectors, err := a.newVectorStore(ctx)
	if err != nil {
		return nil, err
	}
	a.onClose(vectors.Close)

	// 3. Upload storage
	files, err := a.newFileStore(ctx)
	if err != nil {
		return nil, err
	}

	// 4. Chunker and answer synthesizer
	splitter, err := splitters.NewCharSplitter(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	synth, err := a.newSynthesizer(ctx)
	if err != nil {
		return nil, err
	}

	// 5. Optional cache and event publisher
	queryCache, err := a.newCache(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := a.newPublisher()
	if err != nil {
		return nil, err
	}

	a.Service = service.New(service.Dependencies{
		DB:          db,
		Files:       files,
		VectorStore: vectors,
		Loader:      loaders.NewPdfLoader(),
		Splitter:    splitter,
		Synthesizer: synth,
		Cache:       queryCache,
		Events:      publisher,
		TopK:        cfg.Retrieval.TopK,
		MaxDistance: cfg.Retrieval.MaxDistance,
		Log:         log,
	})

	// 6. HTTP router
	var limiter *ratelimiter.PerClient
	if cfg.Middleware.RateLimiter.Enabled {
		factory, err := ratelimiter.NewFactory(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		if limiter, err = ratelimiter.NewPerClient(factory, cfg.Middleware.RateLimiter.Clients); err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		log.Info(fmt.Sprintf("Rate limiting enabled with algorithm: %s", cfg.Middleware.RateLimiter.Algorithm))
	}
	handler := api.NewHandler(a.Service, log, cfg.Server.MaxUploadBytes)
	a.Router = api.NewRouter(handler, log, limiter)

	return a, nil
}

func (a *App) newVectorStore(ctx context.Context) (interfaces.VectorStore, error) {
	cfg := a.Config
	emb, err := embedding.NewEmdModel(cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	if err != nil {
		return nil, err
	}
	opts := vectorstore.LocalOptions{BatchSize: cfg.VectorStore.BatchSize, Workers: cfg.VectorStore.Workers}

	switch cfg.VectorStore.Type {
	case "local":
		a.log.Info(fmt.Sprintf("Using local vector store at %s", cfg.VectorStore.Path))
		return vectorstore.NewLocalStore(cfg.VectorStore.Path, emb, opts, a.log)
	case "milvus":
		dim, err := embedding.Dimension(ctx, emb)
		if err != nil {
			return nil, err
		}
		client, err := milvus.NewClient(ctx, &cfg.Databases.Milvus)
		if err != nil {
			return nil, err
		}
		store, err := vectorstore.NewMilvusStore(ctx, client, cfg.VectorStore.Collection, emb, dim, opts, a.log)
		if err != nil {
			client.Close()
			return nil, err
		}
		a.log.Info(fmt.Sprintf("Using Milvus collection %s (dim %d)", cfg.VectorStore.Collection, dim))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.VectorStore.Type)
	}
}

func (a *App) newFileStore(ctx context.Context) (filestore.FileStore, error) {
	cfg := a.Config
	switch cfg.Storage.Type {
	case "local":
		return filestore.NewLocalStore(cfg.Storage.Dir)
	case "minio":
		client, err := miniodb.NewClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			return nil, err
		}
		return filestore.NewMinioStore(client, cfg.Databases.MinIO.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// newSynthesizer picks the model-backed synthesizer when a provider is
// usable and the deterministic placeholder otherwise.
func (a *App) newSynthesizer(ctx context.Context) (interfaces.Synthesizer, error) {
	cfg := a.Config
	if !llm.Configured(cfg.LLM) {
		a.log.Warn("No LLM credential configured, answers will be a placeholder excerpt of the context")
		return synthesizers.NewPlaceholderSynthesizer(), nil
	}

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(io.Closer); ok {
		a.onClose(c.Close)
	}

	var breaker *circuitbreaker.Breaker
	if cb := cfg.Middleware.CircuitBreaker; cb.Enabled {
		breaker = circuitbreaker.New(circuitbreaker.Settings{
			FailureThreshold: cb.FailureThreshold,
			SuccessThreshold: cb.SuccessThreshold,
			Timeout:          config.Duration(cb.Timeout),
			OnStateChange: func(from, to circuitbreaker.State) {
				a.log.Warn(fmt.Sprintf("LLM circuit breaker: %s -> %s", from, to))
			},
		})
	}
	a.log.Info(fmt.Sprintf("Answers synthesized by %s model %s", cfg.LLM.Provider, cfg.LLM.Model))
	return synthesizers.NewModelSynthesizer(client, breaker, config.Duration(cfg.LLM.Timeout), a.log), nil
}

func (a *App) newCache(ctx context.Context) (*cache.QueryCache, error) {
	cfg := a.Config
	ttl := config.Duration(cfg.Cache.TTL)
	switch cfg.Cache.Type {
	case "", "none":
		return nil, nil
	case "memory":
		store, err := cache.NewMemoryStore(cfg.Cache.Capacity, ttl)
		if err != nil {
			return nil, err
		}
		return cache.New(store, ttl), nil
	case "redis":
		rdb, err := redisdb.NewClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		store := cache.NewRedisStore(rdb)
		a.onClose(store.Close)
		return cache.New(store, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Cache.Type)
	}
}

func (a *App) newPublisher() (events.Publisher, error) {
	if !a.Config.Events.Enabled {
		return events.NoopPublisher{}, nil
	}
	client, err := kafkadb.NewClient(&a.Config.Databases.Kafka)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Close)
	return events.NewKafkaPublisher(client.Writer), nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
