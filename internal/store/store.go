package store

import (
	"context"
	"sync"
	"time"

	"readest-ai-core/internal/bm25"
	"readest-ai-core/internal/model"
	"readest-ai-core/internal/ragerr"
)

// bookCache holds the warm in-memory state for one book. Writers
// replace it wholesale after a successful transaction; readers take a
// local reference and iterate on their own, so no reader ever observes
// a partially updated cache.
type bookCache struct {
	chunks []model.Chunk
	bm25   *bm25.Index
	meta   *model.BookIndexMeta
	convos []model.Conversation
}

// Store is the per-book durable layer described by this module: a
// Backend for persistence, plus the caches that make reads hot. One
// Store is scoped to exactly one book.
type Store struct {
	backend  Backend
	bookHash string
	now      Clock
	vector   VectorBackend // nil selects the in-process cosine scan

	mu    sync.RWMutex
	cache bookCache
}

// SetVectorBackend configures vb as the vector search and upsert path
// for this Store, used in place of the in-process cosine scan when
// non-nil. Intended to be called once, by the Registry that
// constructed this Store, before it is handed to any caller.
func (s *Store) SetVectorBackend(vb VectorBackend) {
	s.vector = vb
}

// New wraps backend with warm caches for bookHash. Callers should
// obtain one Store per book via a Registry (see registry.go) rather
// than constructing ad hoc instances, so the "at most one open handle
// per book" invariant holds.
func New(backend Backend, bookHash string) *Store {
	return &Store{backend: backend, bookHash: bookHash, now: time.Now}
}

// SaveChunks writes all chunks for the book in a single transaction;
// on success the chunk cache is replaced wholesale with the written
// set. When an external VectorBackend is configured, the same chunks
// are upserted there too, so its index never drifts from the backend's.
func (s *Store) SaveChunks(ctx context.Context, chunks []model.Chunk) error {
	if err := s.backend.SaveChunks(ctx, chunks); err != nil {
		return err
	}
	if s.vector != nil {
		if err := s.vector.UpsertChunks(ctx, s.bookHash, chunks); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.cache.chunks = chunks
	s.mu.Unlock()
	return nil
}

// SaveBM25 builds and persists a lexical index over the given chunks,
// replacing the cached deserialized index atomically on success.
func (s *Store) SaveBM25(ctx context.Context, chunks []model.Chunk) error {
	idx := bm25.New()
	for _, c := range chunks {
		idx.Add(c.ID, c.Text, c.ChapterTitle)
	}
	data, err := idx.Marshal()
	if err != nil {
		return ragerr.Store("store.SaveBM25", err)
	}
	if err := s.backend.SaveBM25(ctx, data); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.bm25 = idx
	s.mu.Unlock()
	return nil
}

// SaveMeta writes book metadata, the commit marker for an indexing
// run, and refreshes the cache.
func (s *Store) SaveMeta(ctx context.Context, meta model.BookIndexMeta) error {
	if err := s.backend.SaveMeta(ctx, meta); err != nil {
		return err
	}
	s.mu.Lock()
	m := meta
	s.cache.meta = &m
	s.mu.Unlock()
	return nil
}

// IsBookIndexed consults meta, loading it from the backend on first
// use and caching it thereafter.
func (s *Store) IsBookIndexed(ctx context.Context) (bool, error) {
	meta, ok, err := s.Meta(ctx)
	if err != nil {
		return false, err
	}
	return ok && meta.Indexed(), nil
}

// Meta returns the cached meta record, loading it from the backend on
// first use.
func (s *Store) Meta(ctx context.Context) (model.BookIndexMeta, bool, error) {
	s.mu.RLock()
	if s.cache.meta != nil {
		m := *s.cache.meta
		s.mu.RUnlock()
		return m, true, nil
	}
	s.mu.RUnlock()

	meta, ok, err := s.backend.LoadMeta(ctx)
	if err != nil {
		return model.BookIndexMeta{}, false, err
	}
	if ok {
		s.mu.Lock()
		s.cache.meta = &meta
		s.mu.Unlock()
	}
	return meta, ok, nil
}

// Chunks returns the cached chunk set, loading it from the backend on
// first use.
func (s *Store) Chunks(ctx context.Context) ([]model.Chunk, error) {
	s.mu.RLock()
	if s.cache.chunks != nil {
		chunks := s.cache.chunks
		s.mu.RUnlock()
		return chunks, nil
	}
	s.mu.RUnlock()

	chunks, err := s.backend.LoadChunks(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache.chunks = chunks
	s.mu.Unlock()
	return chunks, nil
}

// bm25Index returns the cached deserialized BM25 index, loading and
// deserializing it from the backend on first use.
func (s *Store) bm25Index(ctx context.Context) (*bm25.Index, error) {
	s.mu.RLock()
	if s.cache.bm25 != nil {
		idx := s.cache.bm25
		s.mu.RUnlock()
		return idx, nil
	}
	s.mu.RUnlock()

	data, err := s.backend.LoadBM25(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	idx, err := bm25.Unmarshal(data)
	if err != nil {
		return nil, ragerr.Store("store.bm25Index", err)
	}
	s.mu.Lock()
	s.cache.bm25 = idx
	s.mu.Unlock()
	return idx, nil
}

// VectorSearch performs a vector similarity search over the book's
// chunks: an exact in-process cosine scan by default, or a delegated
// call to the configured VectorBackend when one is set via
// SetVectorBackend.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int, maxPage *int) ([]model.ScoredChunk, error) {
	if s.vector != nil {
		return s.vector.SearchChunks(ctx, s.bookHash, queryEmbedding, k, maxPage)
	}
	chunks, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	return vectorSearch(chunks, queryEmbedding, k, maxPage), nil
}

// BM25Search queries the deserialized lexical index and maps hits back
// to chunks. A query that fails to parse returns an empty list.
func (s *Store) BM25Search(ctx context.Context, query string, k int, maxPage *int) ([]model.ScoredChunk, error) {
	chunks, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.bm25Index(ctx)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, nil
	}
	return bm25SearchChunks(chunks, idx, query, k, maxPage), nil
}

// HybridSearch issues vector and BM25 searches concurrently (vector
// only if queryEmbedding is non-empty) and fuses them per this module's
// weighted-normalization-and-merge algorithm. The vector leg goes
// through VectorSearch, so a configured VectorBackend is used there too.
func (s *Store) HybridSearch(ctx context.Context, queryEmbedding []float32, query string, k int, maxPage *int) ([]model.ScoredChunk, error) {
	candidateK := 2 * k
	if candidateK <= 0 {
		candidateK = 2
	}

	chunks, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}

	var vectorHits []model.ScoredChunk
	var vectorErr error
	var wg sync.WaitGroup
	if len(queryEmbedding) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = s.VectorSearch(ctx, queryEmbedding, candidateK, maxPage)
		}()
	}

	idx, err := s.bm25Index(ctx)
	var bm25Hits []model.ScoredChunk
	if err == nil && idx != nil {
		bm25Hits = bm25SearchChunks(chunks, idx, query, candidateK, maxPage)
	}
	wg.Wait()
	if vectorErr != nil {
		return nil, vectorErr
	}
	if err != nil {
		return nil, err
	}

	return fuseHybrid(vectorHits, bm25Hits, k), nil
}

// ChunksForPage returns every cached chunk with the given page number.
func (s *Store) ChunksForPage(ctx context.Context, pageNumber int) ([]model.Chunk, error) {
	chunks, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Chunk
	for _, c := range chunks {
		if c.PageNumber == pageNumber {
			out = append(out, c)
		}
	}
	return out, nil
}

// ChunksForSection returns every cached chunk with the given section index.
func (s *Store) ChunksForSection(ctx context.Context, sectionIndex int) ([]model.Chunk, error) {
	chunks, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Chunk
	for _, c := range chunks {
		if c.SectionIndex == sectionIndex {
			out = append(out, c)
		}
	}
	return out, nil
}

// ClearBookIndex removes chunks, bm25 index, meta and conversations,
// and drops all caches for the book. When an external VectorBackend is
// configured, its points for the book are deleted too.
func (s *Store) ClearBookIndex(ctx context.Context) error {
	if err := s.backend.ClearBook(ctx); err != nil {
		return err
	}
	if s.vector != nil {
		if err := s.vector.DeleteBook(ctx, s.bookHash); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.cache = bookCache{}
	s.mu.Unlock()
	return nil
}

// RecoverFromError closes the underlying handle and drops all caches.
// Callers must obtain a fresh Store (via the Registry) after calling
// this.
func (s *Store) RecoverFromError() error {
	s.mu.Lock()
	s.cache = bookCache{}
	s.mu.Unlock()
	return s.backend.Close()
}

// SaveConversation upserts a conversation and invalidates the
// conversation cache.
func (s *Store) SaveConversation(ctx context.Context, c model.Conversation) error {
	if err := s.backend.SaveConversation(ctx, c); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.convos = nil
	s.mu.Unlock()
	return nil
}

// GetConversations returns every conversation for the book, sorted by
// updatedAt descending, loading from the backend on first use.
func (s *Store) GetConversations(ctx context.Context) ([]model.Conversation, error) {
	s.mu.RLock()
	if s.cache.convos != nil {
		convos := s.cache.convos
		s.mu.RUnlock()
		return convos, nil
	}
	s.mu.RUnlock()

	convos, err := s.backend.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache.convos = convos
	s.mu.Unlock()
	return convos, nil
}

// UpdateConversationTitle updates the conversation's title and
// updatedAt in a single backend transaction, then invalidates the
// conversation cache.
func (s *Store) UpdateConversationTitle(ctx context.Context, id, title string) error {
	if _, err := s.backend.UpdateConversationTitle(ctx, id, title, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.convos = nil
	s.mu.Unlock()
	return nil
}

// DeleteConversation deletes the conversation and cascades to delete
// all its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.convos = nil
	s.mu.Unlock()
	return nil
}

// SaveMessage appends a message. The system role is never persisted;
// callers must filter it out before calling this.
func (s *Store) SaveMessage(ctx context.Context, m model.Message) error {
	return s.backend.SaveMessage(ctx, m)
}

// GetMessages returns every message of a conversation, sorted by
// createdAt ascending.
func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return s.backend.ListMessages(ctx, conversationID)
}

// Close releases the underlying handle without clearing persisted data.
func (s *Store) Close() error { return s.backend.Close() }

type conversationNotFoundError struct{ id string }

func (e conversationNotFoundError) Error() string { return "conversation not found: " + e.id }

func errConversationNotFound(id string) error { return conversationNotFoundError{id: id} }
