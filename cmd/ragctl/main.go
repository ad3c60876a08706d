// Command ragctl is the composition root: it wires config, the
// per-book store registry, the embedding provider, the retriever,
// the chat orchestrator, and the reference HTTP adapter
// into one running process: config -> logging -> storage -> embedding
// validation -> retriever -> orchestrator -> router -> listen.
package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"readest-ai-core/internal/config"
	"readest-ai-core/internal/embedding"
	"readest-ai-core/internal/httpapi"
	"readest-ai-core/internal/orchestration"
	"readest-ai-core/internal/retriever"
	"readest-ai-core/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	rawProvider, err := embedding.NewOpenAICompatClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName)
	if err != nil {
		log.Fatalf("failed to construct embedding client: %v", err)
	}
	provider := embedding.NewRetryingProvider(rawProvider, embedding.BatchPolicy(), embedding.SingleQueryPolicy())

	ctx := context.Background()
	var probeDimension int
	if vec, err := provider.Embed(ctx, "startup validation probe"); err != nil {
		slog.Warn("embedding provider unreachable at startup, indexing will degrade to lexical-only until it recovers", "error", err)
	} else {
		probeDimension = len(vec)
		slog.Info("embedding client validated", "dimension", probeDimension, "model", cfg.EmbeddingModelName)
	}

	var vectorBackend store.VectorBackend
	if cfg.QdrantURL != "" {
		qb, err := store.NewQdrantVectorBackend(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			log.Fatalf("failed to construct Qdrant vector backend: %v", err)
		}
		if probeDimension > 0 {
			if err := qb.EnsureCollection(ctx, probeDimension); err != nil {
				log.Fatalf("failed to ensure Qdrant collection: %v", err)
			}
		}
		vectorBackend = qb
		slog.Info("vector search delegated to Qdrant", "url", cfg.QdrantURL, "collection", cfg.QdrantCollection)
	}

	registry := store.NewRegistry(cfg.DataDir, vectorBackend)
	defer func() {
		if err := registry.CloseAll(); err != nil {
			slog.Error("failed to close store registry cleanly", "error", err)
		}
	}()
	slog.Info("store registry initialized", "data_dir", cfg.DataDir)

	// indexer.New(registry, provider, logger) is the ingestion entry
	// point; it is embedded by the reader host process directly
	// (which owns EPUB/HTML parsing into a chunker.SectionDOM) rather
	// than exposed over this reference HTTP surface.
	rt := retriever.New(registry, provider, logger)
	orch := orchestration.New(rt, logger)

	router := httpapi.NewRouter(httpapi.Deps{Orchestrator: orch, Provider: provider})

	addr := ":" + cfg.APIPort
	slog.Info("starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
