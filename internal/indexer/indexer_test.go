package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"readest-ai-core/internal/model"
	"readest-ai-core/internal/ragerr"
	"readest-ai-core/internal/store"
)

// fakeDOM is a minimal SectionDOM double for tests that don't need a
// real markdown/HTML parse.
type fakeDOM struct{ text string }

func (f fakeDOM) ExtractText() string { return f.text }

// fakeBackend is an in-memory store.Backend double, mirroring the
// store package's own test fake so the Indexer's store wiring can be
// exercised without SQLite.
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
func (f *fakeBackend) SaveMessage(context.Context, model.Message) error      { return nil }
func (f *fakeBackend) ListMessages(context.Context, string) ([]model.Message, error) {
	return nil, nil
}
func (f *fakeBackend) Close() error { return nil }

// fakeRegistry hands out one Store per bookHash, backed by fakeBackend.
type fakeRegistry struct {
	backends map[string]*fakeBackend
	stores   map[string]*store.Store
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{backends: make(map[string]*fakeBackend), stores: make(map[string]*store.Store)}
}

func (r *fakeRegistry) Get(bookHash string) (*store.Store, error) {
	if s, ok := r.stores[bookHash]; ok {
		return s, nil
	}
	b := &fakeBackend{}
	s := store.New(b, bookHash)
	r.backends[bookHash] = b
	r.stores[bookHash] = s
	return s, nil
}

type fakeProvider struct {
	dim      int
	model    string
	failWith error
}

func (p *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *fakeProvider) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	if p.failWith != nil {
		return nil, p.failWith
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, p.dim)
	}
	return out, nil
}

func (p *fakeProvider) Dimension() int    { return p.dim }
func (p *fakeProvider) ModelName() string { return p.model }

func longText(n int) string { return strings.Repeat("word ", n) }

func docWithSections(texts ...string) BookDocument {
	sections := make([]SectionDoc, len(texts))
	for i, t := range texts {
		sections[i] = SectionDoc{DOM: fakeDOM{text: t}}
	}
	return BookDocument{Sections: sections}
}

func TestIndexBook_ProducesChunksAndMarksIndexed(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	doc := docWithSections(longText(400))
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil); err != nil {
		t.Fatalf("IndexBook: %v", err)
	}

	st, _ := reg.Get("book1")
	indexed, err := st.IsBookIndexed(ctx)
	if err != nil {
		t.Fatalf("IsBookIndexed: %v", err)
	}
	if !indexed {
		t.Fatal("expected book to be marked indexed")
	}

	chunks, err := st.Chunks(ctx)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if !c.HasEmbedding() {
			t.Fatalf("expected chunk %s to carry an embedding", c.ID)
		}
	}

	state, ok := ix.IndexingState("book1")
	if !ok {
		t.Fatal("expected a tracked indexing state for book1")
	}
	if state.Status != model.IndexingStatusComplete {
		t.Fatalf("expected status complete, got %q", state.Status)
	}
	if state.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", state.Progress)
	}
	if state.Err != nil {
		t.Fatalf("expected no error, got %v", state.Err)
	}
}

func TestIndexBook_UnknownBookHasNoIndexingState(t *testing.T) {
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	if _, ok := ix.IndexingState("never-indexed"); ok {
		t.Fatal("expected no tracked state for a book that was never indexed")
	}
}

func TestIndexBook_IdempotentOnAlreadyIndexedBook(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	doc := docWithSections(longText(400))
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil); err != nil {
		t.Fatalf("first IndexBook: %v", err)
	}

	st, _ := reg.Get("book1")
	before, _ := st.Chunks(ctx)

	if err := ix.IndexBook(ctx, "book1", docWithSections(longText(900)), Settings{}, nil); err != nil {
		t.Fatalf("second IndexBook: %v", err)
	}
	after, _ := st.Chunks(ctx)

	if len(before) != len(after) {
		t.Fatalf("expected idempotent no-op, chunk count changed from %d to %d", len(before), len(after))
	}
}

func TestIndexBook_DegradesToLexicalOnPermanentEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed", failWith: errors.New("provider down")}
	ix := New(reg, provider, nil)

	doc := docWithSections(longText(400))
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil); err != nil {
		t.Fatalf("IndexBook: %v", err)
	}

	st, _ := reg.Get("book1")
	indexed, err := st.IsBookIndexed(ctx)
	if err != nil {
		t.Fatalf("IsBookIndexed: %v", err)
	}
	if !indexed {
		t.Fatal("expected book to still be indexed despite embedding failure")
	}

	chunks, _ := st.Chunks(ctx)
	for _, c := range chunks {
		if c.HasEmbedding() {
			t.Fatal("expected chunks to have no embeddings after degrade")
		}
	}
}

func TestIndexBook_NoChunksProducedLeavesBookUnindexed(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	doc := docWithSections("too short")
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil); err != nil {
		t.Fatalf("IndexBook: %v", err)
	}

	st, _ := reg.Get("book1")
	indexed, err := st.IsBookIndexed(ctx)
	if err != nil {
		t.Fatalf("IsBookIndexed: %v", err)
	}
	if indexed {
		t.Fatal("expected book to remain unindexed when no chunks were produced")
	}
}

func TestIndexBook_CancellationAbortsBeforePersisting(t *testing.T) {
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := docWithSections(longText(400))
	err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !ragerr.Is(err, ragerr.KindIndexingAborted) {
		t.Fatalf("expected IndexingAborted kind, got %v", err)
	}

	state, ok := ix.IndexingState("book1")
	if !ok {
		t.Fatal("expected a tracked indexing state despite cancellation")
	}
	if state.Status != model.IndexingStatusError {
		t.Fatalf("expected status error, got %q", state.Status)
	}
	if state.Err == nil {
		t.Fatal("expected IndexingState.Err to be set")
	}
}

func TestIndexBook_ReportsProgressForAllThreePhases(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	var phases []model.Phase
	onProgress := func(p model.Progress) { phases = append(phases, p.Phase) }

	doc := docWithSections(longText(400))
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, onProgress); err != nil {
		t.Fatalf("IndexBook: %v", err)
	}

	seen := map[model.Phase]bool{}
	for _, p := range phases {
		seen[p] = true
	}
	for _, want := range []model.Phase{model.PhaseChunking, model.PhaseEmbedding, model.PhaseIndexing} {
		if !seen[want] {
			t.Errorf("expected a progress event for phase %q", want)
		}
	}
}

func TestCoverageStats_EmptyBookReturnsZeroTotals(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	ix := New(reg, &fakeProvider{dim: 4, model: "fake-embed"}, nil)

	stats, err := ix.CoverageStats(ctx, "book1")
	if err != nil {
		t.Fatalf("CoverageStats: %v", err)
	}
	if stats.TotalChunks != 0 {
		t.Fatalf("expected 0 total chunks, got %d", stats.TotalChunks)
	}
}

func TestCoverageStats_ReflectsIndexedBook(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	provider := &fakeProvider{dim: 4, model: "fake-embed"}
	ix := New(reg, provider, nil)

	doc := docWithSections(longText(400))
	if err := ix.IndexBook(ctx, "book1", doc, Settings{}, nil); err != nil {
		t.Fatalf("IndexBook: %v", err)
	}

	stats, err := ix.CoverageStats(ctx, "book1")
	if err != nil {
		t.Fatalf("CoverageStats: %v", err)
	}
	if stats.TotalChunks == 0 {
		t.Fatal("expected non-zero total chunks")
	}
	if stats.ChunksEmbedded != stats.TotalChunks {
		t.Fatalf("expected all chunks embedded, got %d/%d", stats.ChunksEmbedded, stats.TotalChunks)
	}
	if stats.IndexVersion == "" {
		t.Fatal("expected a non-empty IndexVersion hash")
	}
}
