// Package indexer drives an end-to-end index build for one book:
// chunk, embed, persist, with progress reporting, cooperative
// cancellation, retried embedding calls, and an idempotency guard over
// a single explicit IndexBook entry point over a parsed book document.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"readest-ai-core/internal/chunker"
	"readest-ai-core/internal/embedding"
	"readest-ai-core/internal/model"
	"readest-ai-core/internal/ragerr"
	"readest-ai-core/internal/store"
)

// DefaultPageSizeChars is the page-numbering constant used when
// Settings.PageSizeChars is unset.
const DefaultPageSizeChars = 1800

// DefaultEmbeddingBatchSize caps how many texts are sent to the
// provider per round trip, matching the OpenAI-compatible transport's
// practical batch limit.
const DefaultEmbeddingBatchSize = 5

// Registry resolves the per-book Store an indexing run writes to.
// Satisfied by *store.Registry; an interface here so tests can supply
// a fake without opening real SQLite files.
type Registry interface {
	Get(bookHash string) (*store.Store, error)
}

// Indexer orchestrates indexBook runs across books, enforcing the
// at-most-one-run-per-book concurrency guard.
type Indexer struct {
	stores   Registry
	provider embedding.Provider
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool

	stateMu sync.Mutex
	states  map[string]*model.IndexingState
}

// New builds an Indexer. provider should already be wrapped with
// retry/timeout semantics (embedding.RetryingProvider) so each batch
// call gets exponential backoff and a per-attempt timeout for free.
func New(stores Registry, provider embedding.Provider, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		stores:   stores,
		provider: provider,
		logger:   logger,
		now:      time.Now,
		inFlight: make(map[string]bool),
		states:   make(map[string]*model.IndexingState),
	}
}

// IndexingState returns the most recently tracked indexing state for
// bookHash, or ok=false if no run has ever started for it.
func (ix *Indexer) IndexingState(bookHash string) (state model.IndexingState, ok bool) {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	st, ok := ix.states[bookHash]
	if !ok {
		return model.IndexingState{}, false
	}
	return *st, true
}

// phaseWeights maps each reported phase onto a slice of the overall
// 0-100 IndexingState.Progress range.
var phaseWeights = map[model.Phase]struct{ start, end int }{
	model.PhaseChunking:  {0, 20},
	model.PhaseEmbedding: {20, 90},
	model.PhaseIndexing:  {90, 100},
}

// registerState resets bookHash's tracked state to "indexing" at the
// start of a run.
func (ix *Indexer) registerState(bookHash string) {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	ix.states[bookHash] = &model.IndexingState{Status: model.IndexingStatusIndexing}
}

// updateProgress folds one Progress event into bookHash's tracked
// state, converting the phase-local (current, total) pair into the
// overall 0-100 scale via phaseWeights.
func (ix *Indexer) updateProgress(bookHash string, p model.Progress) {
	weight, ok := phaseWeights[p.Phase]
	if !ok {
		return
	}
	pct := weight.start
	if p.Total > 0 {
		pct = weight.start + (p.Current*(weight.end-weight.start))/p.Total
	}

	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	st, ok := ix.states[bookHash]
	if !ok {
		return
	}
	st.Progress = pct
	if p.Phase == model.PhaseEmbedding {
		st.ChunksProcessed = p.Current
		st.TotalChunks = p.Total
	}
}

// finishState marks bookHash's tracked run as complete or errored. A
// complete run always reports 100% progress.
func (ix *Indexer) finishState(bookHash string, status model.IndexingStatus, err error) {
	ix.stateMu.Lock()
	defer ix.stateMu.Unlock()
	st, ok := ix.states[bookHash]
	if !ok {
		st = &model.IndexingState{}
		ix.states[bookHash] = st
	}
	st.Status = status
	st.Err = err
	if status == model.IndexingStatusComplete {
		st.Progress = 100
	}
}

// IndexBook builds or rebuilds the index for bookHash. It is
// idempotent: if the book is already indexed, it returns immediately.
// At most one run per bookHash executes at a time; a concurrent call
// for the same book returns immediately without error.
func (ix *Indexer) IndexBook(ctx context.Context, bookHash string, doc BookDocument, settings Settings, onProgress ProgressFunc) error {
	st, err := ix.stores.Get(bookHash)
	if err != nil {
		return err
	}

	indexed, err := st.IsBookIndexed(ctx)
	if err != nil {
		return err
	}
	if indexed {
		return nil
	}

	if !ix.claim(bookHash) {
		return nil
	}
	defer ix.release(bookHash)

	ix.registerState(bookHash)
	progress := func(p model.Progress) {
		ix.updateProgress(bookHash, p)
		if onProgress != nil {
			onProgress(p)
		}
	}

	pageSizeChars := settings.PageSizeChars
	if pageSizeChars <= 0 {
		pageSizeChars = DefaultPageSizeChars
	}

	allChunks := ix.chunkBook(bookHash, doc, pageSizeChars, progress)
	if len(allChunks) == 0 {
		ix.finishState(bookHash, model.IndexingStatusComplete, nil)
		return nil
	}
	if err := ctx.Err(); err != nil {
		abortErr := ragerr.Aborted("indexer.IndexBook", err)
		ix.finishState(bookHash, model.IndexingStatusError, abortErr)
		return abortErr
	}

	modelName, dimension := ix.embedChunks(ctx, bookHash, allChunks, settings, progress)
	if err := ctx.Err(); err != nil {
		abortErr := ragerr.Aborted("indexer.IndexBook", err)
		ix.finishState(bookHash, model.IndexingStatusError, abortErr)
		return abortErr
	}

	if err := st.SaveChunks(ctx, allChunks); err != nil {
		ix.finishState(bookHash, model.IndexingStatusError, err)
		return err
	}
	reportProgress(progress, 0, 2, model.PhaseIndexing)
	if err := ctx.Err(); err != nil {
		abortErr := ragerr.Aborted("indexer.IndexBook", err)
		ix.finishState(bookHash, model.IndexingStatusError, abortErr)
		return abortErr
	}

	if err := st.SaveBM25(ctx, allChunks); err != nil {
		ix.finishState(bookHash, model.IndexingStatusError, err)
		return err
	}
	reportProgress(progress, 1, 2, model.PhaseIndexing)
	if err := ctx.Err(); err != nil {
		abortErr := ragerr.Aborted("indexer.IndexBook", err)
		ix.finishState(bookHash, model.IndexingStatusError, abortErr)
		return abortErr
	}

	meta := model.BookIndexMeta{
		BookHash:           bookHash,
		TotalSections:      len(doc.Sections),
		TotalChunks:        len(allChunks),
		EmbeddingModel:     modelName,
		EmbeddingDimension: dimension,
		PageSizeChars:      pageSizeChars,
		LastUpdated:        ix.now(),
	}
	if err := st.SaveMeta(ctx, meta); err != nil {
		ix.finishState(bookHash, model.IndexingStatusError, err)
		return err
	}
	reportProgress(progress, 2, 2, model.PhaseIndexing)
	ix.finishState(bookHash, model.IndexingStatusComplete, nil)
	return nil
}

// chunkBook runs the chunking phase, reporting progress per section.
func (ix *Indexer) chunkBook(bookHash string, doc BookDocument, pageSizeChars int, onProgress ProgressFunc) []model.Chunk {
	c := chunker.New(pageSizeChars, chunker.WithLogger(ix.logger))
	total := len(doc.Sections)

	var all []model.Chunk
	for i, sec := range doc.Sections {
		title := chunker.ResolveChapterTitle(doc.TOC, i)
		section := chunker.Section{Index: i, DOM: sec.DOM, CumulativeOffset: sec.CumulativeOffset}
		chunks := c.ChunkSection(section, bookHash, title)
		all = append(all, chunks...)
		reportProgress(onProgress, i+1, total, model.PhaseChunking)
	}
	return all
}

// embedChunks runs the embedding phase, tolerating a permanent
// provider failure by logging a warning and leaving chunks without
// vectors so lexical-only indexing can still proceed. A cancellation
// also returns "", 0 without logging; IndexBook detects it through
// ctx.Err() and aborts.
func (ix *Indexer) embedChunks(ctx context.Context, bookHash string, chunks []model.Chunk, settings Settings, onProgress ProgressFunc) (modelName string, dimension int) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedAll(ctx, texts, settings, onProgress)
	if err != nil {
		if ragerr.Is(err, ragerr.KindIndexingAborted) {
			return "", 0
		}
		ix.logger.Warn("embedding provider degraded, indexing lexical-only",
			"bookHash", bookHash, "error", err)
		return "", 0
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return ix.provider.ModelName(), ix.provider.Dimension()
}

// embedAll embeds texts in fixed-size batches, each batch call already
// wrapped in retry/timeout by the Provider (see embedding.RetryingProvider).
func (ix *Indexer) embedAll(ctx context.Context, texts []string, settings Settings, onProgress ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := settings.EmbeddingBatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}

	out := make([][]float32, len(texts))
	done := 0
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, ragerr.Aborted("indexer.embedAll", err)
		}

		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := ix.provider.EmbedMany(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, ragerr.Embedding("indexer.embedAll",
				fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vecs)))
		}
		for i, v := range vecs {
			out[start+i] = v
		}

		done += len(batch)
		reportProgress(onProgress, done, len(texts), model.PhaseEmbedding)
	}
	return out, nil
}

func (ix *Indexer) claim(bookHash string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.inFlight[bookHash] {
		return false
	}
	ix.inFlight[bookHash] = true
	return true
}

func (ix *Indexer) release(bookHash string) {
	ix.mu.Lock()
	delete(ix.inFlight, bookHash)
	ix.mu.Unlock()
}
