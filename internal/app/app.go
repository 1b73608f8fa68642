// Package app wires configuration into the journal store, its optional
// collaborators and the HTTP router. The API server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"clarify/internal/config"
	"clarify/internal/handlers"
	apphttp "clarify/internal/http"
	"clarify/internal/journal"
	"clarify/internal/llm"
	"clarify/internal/metrics"
	"clarify/internal/related"
	"clarify/internal/service"
	"clarify/internal/storage"
	"clarify/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Cfg      *config.Config
	Log      *slog.Logger
	Blobs    storage.BlobStore
	Store    *journal.Store
	Journal  service.JournalService
	Socratic service.SocraticService
	// Related is nil when no vector store is configured.
	Related  *related.Index
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// New builds an App from cfg. Optional features whose configuration is
// missing stay disabled; a configured but unreachable dependency is an error.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	a := &App{
		Cfg:      cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewMetrics(a.Registry)

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		return nil, err
	}
	a.Blobs = blobs

	a.Store = journal.New(blobs,
		journal.WithNamespace(cfg.JournalNamespace),
		journal.WithHistoryLimit(cfg.HistoryLimit),
		journal.WithLogger(log),
		journal.WithMetrics(a.Metrics),
	)

	if cfg.RelatedEnabled() {
		index, err := a.openRelated(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Related = index
		a.Journal = service.NewJournalService(a.Store, index)
	} else {
		log.Info("Related entries disabled", "reason", "QDRANT_URL not set")
		a.Journal = service.NewJournalService(a.Store, nil)
	}

	if cfg.SocraticEnabled() {
		a.Socratic = service.NewSocraticService(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName))
		log.Info("Socratic questions enabled", "model", cfg.LLMModelName)
	} else {
		log.Info("Socratic questions disabled", "reason", "LLM_API_KEY not set")
		a.Socratic = service.NewSocraticService(nil)
	}

	return a, nil
}

func (a *App) openBlobs(ctx context.Context) (storage.BlobStore, error) {
	switch a.Cfg.BlobBackend {
	case config.BackendMemory:
		a.Log.Warn("Using in-memory journal storage, entries are lost on exit")
		return storage.NewMemoryBlobStore(), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: a.Cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.Cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		a.Log.Info("Redis journal storage initialized", "addr", a.Cfg.RedisAddr)
		return storage.NewRedisBlobStore(client), nil

	default:
		db, err := storage.New(a.Cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := storage.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Log.Info("Database initialized", "path", a.Cfg.DBPath)
		return storage.NewSQLiteBlobStore(db), nil
	}
}

func (a *App) openRelated(ctx context.Context) (*related.Index, error) {
	cfg := a.Cfg

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	a.closers = append(a.closers, vectorStore.Close)

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	a.Log.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	vec, err := embedder.EmbedText(ctx, "test")
	if err != nil {
		return nil, fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vec) != cfg.QdrantVectorSize {
		return nil, fmt.Errorf("embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(vec))
	}
	a.Log.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	return related.NewIndex(vectorStore, embedder, cfg.QdrantCollection), nil
}

// HealthChecks lists the dependencies reported by the health endpoint.
func (a *App) HealthChecks() []handlers.HealthCheck {
	checks := []handlers.HealthCheck{{Name: "journal", Pinger: a.Blobs}}
	if a.Related != nil {
		checks = append(checks, handlers.HealthCheck{Name: "qdrant", Pinger: a.Related, Optional: true})
	}
	return checks
}

// Router builds the HTTP handler for the API server.
func (a *App) Router() http.Handler {
	return apphttp.NewRouter(&apphttp.Deps{
		JournalService:  a.Journal,
		SocraticService: a.Socratic,
		HealthChecks:    a.HealthChecks(),
		Metrics:         a.Metrics,
		Gatherer:        a.Registry,
	})
}

// Close releases backend connections in reverse order of opening.
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
