package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"readest-ai-core/internal/model"
	"readest-ai-core/internal/store"
)

type fakeBackend struct {
	chunks  []model.Chunk
	bm25    []byte
	meta    model.BookIndexMeta
	hasMeta bool
}

func (f *fakeBackend) SaveChunks(_ context.Context, chunks []model.Chunk) error {
	f.chunks = chunks
	return nil
}
func (f *fakeBackend) LoadChunks(_ context.Context) ([]model.Chunk, error) { return f.chunks, nil }
func (f *fakeBackend) SaveBM25(_ context.Context, data []byte) error       { f.bm25 = data; return nil }
func (f *fakeBackend) LoadBM25(_ context.Context) ([]byte, error)          { return f.bm25, nil }
func (f *fakeBackend) SaveMeta(_ context.Context, meta model.BookIndexMeta) error {
	f.meta, f.hasMeta = meta, true
	return nil
}
func (f *fakeBackend) LoadMeta(_ context.Context) (model.BookIndexMeta, bool, error) {
	return f.meta, f.hasMeta, nil
}
func (f *fakeBackend) ClearBook(_ context.Context) error {
	f.chunks, f.bm25, f.hasMeta = nil, nil, false
	return nil
}
func (f *fakeBackend) SaveConversation(context.Context, model.Conversation) error { return nil }
func (f *fakeBackend) ListConversations(context.Context) ([]model.Conversation, error) {
	return nil, nil
}
func (f *fakeBackend) GetConversation(context.Context, string) (model.Conversation, bool, error) {
	return model.Conversation{}, false, nil
}
func (f *fakeBackend) UpdateConversationTitle(context.Context, string, string, time.Time) (model.Conversation, error) {
	return model.Conversation{}, nil
}
func (f *fakeBackend) DeleteConversation(context.Context, string) error { return nil }
func (f *fakeBackend) SaveMessage(context.Context, model.Message) error { return nil }
func (f *fakeBackend) ListMessages(context.Context, string) ([]model.Message, error) {
	return nil, nil
}
func (f *fakeBackend) Close() error { return nil }

type fakeRegistry struct {
	stores map[string]*store.Store
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{stores: make(map[string]*store.Store)}
}

func (r *fakeRegistry) Get(bookHash string) (*store.Store, error) {
	if s, ok := r.stores[bookHash]; ok {
		return s, nil
	}
	s := store.New(&fakeBackend{}, bookHash)
	r.stores[bookHash] = s
	return s, nil
}

type fakeProvider struct {
	vec     []float32
	failErr error
}

func (p *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	if p.failErr != nil {
		return nil, p.failErr
	}
	return p.vec, nil
}
func (p *fakeProvider) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = p.vec
	}
	return out, nil
}
func (p *fakeProvider) Dimension() int    { return len(p.vec) }
func (p *fakeProvider) ModelName() string { return "fake" }

func seedBook(t *testing.T, reg *fakeRegistry, bookHash string, chunks []model.Chunk) {
	t.Helper()
	st, err := reg.Get(bookHash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := st.SaveChunks(context.Background(), chunks); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
	if err := st.SaveBM25(context.Background(), chunks); err != nil {
		t.Fatalf("SaveBM25: %v", err)
	}
	if err := st.SaveMeta(context.Background(), model.BookIndexMeta{BookHash: bookHash, TotalChunks: len(chunks)}); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
}

func TestRetriever_IsBookIndexed(t *testing.T) {
	reg := newFakeRegistry()
	r := New(reg, &fakeProvider{vec: []float32{1, 0}}, nil)

	indexed, err := r.IsBookIndexed(context.Background(), "book1")
	if err != nil {
		t.Fatalf("IsBookIndexed: %v", err)
	}
	if indexed {
		t.Fatal("expected unseen book to be unindexed")
	}

	seedBook(t, reg, "book1", []model.Chunk{{ID: "c1", Text: "hello", Embedding: []float32{1, 0}}})
	indexed, err = r.IsBookIndexed(context.Background(), "book1")
	if err != nil {
		t.Fatalf("IsBookIndexed: %v", err)
	}
	if !indexed {
		t.Fatal("expected seeded book to be indexed")
	}
}

func TestRetriever_HybridSearchFallsBackOnEmbeddingFailure(t *testing.T) {
	reg := newFakeRegistry()
	seedBook(t, reg, "book1", []model.Chunk{
		{ID: "c1", Text: "the quick brown fox jumps", Embedding: []float32{1, 0}},
		{ID: "c2", Text: "a completely unrelated sentence", Embedding: []float32{0, 1}},
	})
	r := New(reg, &fakeProvider{failErr: errors.New("embedding provider down")}, nil)

	results, err := r.HybridSearch(context.Background(), "book1", "quick fox", 5, nil)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected lexical-only results despite embedding failure")
	}
	for _, res := range results {
		if res.SearchMethod == model.SearchMethodHybrid {
			t.Fatalf("expected no hybrid-tagged results without a query embedding, got %s", res.SearchMethod)
		}
	}
}

func TestRetriever_GetPageContextChunks(t *testing.T) {
	reg := newFakeRegistry()
	seedBook(t, reg, "book1", []model.Chunk{
		{ID: "c1", PageNumber: 2, SectionIndex: 0},
		{ID: "c2", PageNumber: 3, SectionIndex: 1},
	})
	r := New(reg, &fakeProvider{vec: []float32{1, 0}}, nil)

	results, err := r.GetPageContextChunks(context.Background(), "book1", 2)
	if err != nil {
		t.Fatalf("GetPageContextChunks: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "c1" {
		t.Fatalf("expected only c1, got %+v", results)
	}
	if results[0].Score != model.ContextScore || results[0].SearchMethod != model.SearchMethodContext {
		t.Fatalf("expected context tagging, got score=%v method=%v", results[0].Score, results[0].SearchMethod)
	}
}

func TestRetriever_GetChapterContextChunksReturnsWholeSection(t *testing.T) {
	reg := newFakeRegistry()
	seedBook(t, reg, "book1", []model.Chunk{
		{ID: "c1", PageNumber: 2, SectionIndex: 0},
		{ID: "c2", PageNumber: 2, SectionIndex: 0},
		{ID: "c3", PageNumber: 4, SectionIndex: 1},
	})
	r := New(reg, &fakeProvider{vec: []float32{1, 0}}, nil)

	results, err := r.GetChapterContextChunks(context.Background(), "book1", 2)
	if err != nil {
		t.Fatalf("GetChapterContextChunks: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 chunks from section 0, got %d", len(results))
	}
}

func TestRetriever_GetChapterContextChunksEmptyPage(t *testing.T) {
	reg := newFakeRegistry()
	seedBook(t, reg, "book1", []model.Chunk{{ID: "c1", PageNumber: 1, SectionIndex: 0}})
	r := New(reg, &fakeProvider{vec: []float32{1, 0}}, nil)

	results, err := r.GetChapterContextChunks(context.Background(), "book1", 99)
	if err != nil {
		t.Fatalf("GetChapterContextChunks: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result for page with no chunks, got %d", len(results))
	}
}
