// Package retriever is the public search surface chat orchestration
// consumes: hybrid search over one book's index plus page/chapter
// context lookups. It is a pure retrieval surface; answer generation
// and prompt construction stay with external collaborators.
package retriever

import (
	"context"
	"log/slog"

	"readest-ai-core/internal/embedding"
	"readest-ai-core/internal/model"
	"readest-ai-core/internal/store"
)

// DefaultTopK is the result count used when a caller doesn't specify one.
const DefaultTopK = 10

// Registry resolves the per-book Store a retrieval reads from.
// Satisfied by *store.Registry.
type Registry interface {
	Get(bookHash string) (*store.Store, error)
}

// Retriever answers search queries against one book's persisted index.
type Retriever struct {
	stores   Registry
	provider embedding.Provider
	logger   *slog.Logger
}

// New builds a Retriever. provider should be wrapped with
// embedding.RetryingProvider so query embedding gets the
// EMBEDDING_SINGLE retry/timeout policy for free.
func New(stores Registry, provider embedding.Provider, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{stores: stores, provider: provider, logger: logger}
}

// IsBookIndexed consults meta for bookHash.
func (r *Retriever) IsBookIndexed(ctx context.Context, bookHash string) (bool, error) {
	st, err := r.stores.Get(bookHash)
	if err != nil {
		return false, err
	}
	return st.IsBookIndexed(ctx)
}

// HybridSearch embeds query via the active provider and delegates to
// the Store's hybrid fusion. A query-embedding failure is tolerated:
// search proceeds BM25-only rather than failing the whole request,
// since a transient embedding outage shouldn't take down lexical
// search too.
func (r *Retriever) HybridSearch(ctx context.Context, bookHash, query string, topK int, maxPage *int) ([]model.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	st, err := r.stores.Get(bookHash)
	if err != nil {
		return nil, err
	}

	var queryEmbedding []float32
	if vec, err := r.provider.Embed(ctx, query); err != nil {
		r.logger.Warn("query embedding failed, falling back to lexical-only search",
			"bookHash", bookHash, "error", err)
	} else {
		queryEmbedding = vec
	}

	return st.HybridSearch(ctx, queryEmbedding, query, topK, maxPage)
}

// GetPageContextChunks returns every chunk anchored to pageNumber,
// tagged as context chunks so they outrank any normalized search
// score when merged by a caller.
func (r *Retriever) GetPageContextChunks(ctx context.Context, bookHash string, pageNumber int) ([]model.ScoredChunk, error) {
	st, err := r.stores.Get(bookHash)
	if err != nil {
		return nil, err
	}
	chunks, err := st.ChunksForPage(ctx, pageNumber)
	if err != nil {
		return nil, err
	}
	return asContextChunks(chunks), nil
}

// GetChapterContextChunks finds the section containing the first
// chunk on pageNumber and returns every chunk of that section, tagged
// as context chunks. Returns an empty slice if the page has no
// chunks (e.g. a purely illustrative page).
func (r *Retriever) GetChapterContextChunks(ctx context.Context, bookHash string, pageNumber int) ([]model.ScoredChunk, error) {
	st, err := r.stores.Get(bookHash)
	if err != nil {
		return nil, err
	}
	pageChunks, err := st.ChunksForPage(ctx, pageNumber)
	if err != nil {
		return nil, err
	}
	if len(pageChunks) == 0 {
		return nil, nil
	}

	sectionChunks, err := st.ChunksForSection(ctx, pageChunks[0].SectionIndex)
	if err != nil {
		return nil, err
	}
	return asContextChunks(sectionChunks), nil
}

func asContextChunks(chunks []model.Chunk) []model.ScoredChunk {
	out := make([]model.ScoredChunk, len(chunks))
	for i, c := range chunks {
		out[i] = model.ScoredChunk{Chunk: c, Score: model.ContextScore, SearchMethod: model.SearchMethodContext}
	}
	return out
}
