// Package orchestration implements the chat orchestration contract:
// the boundary between the UI-facing chat turn and this module's
// retrieval surface. Prompt construction and answer streaming are
// external collaborators; this package's job stops at producing the
// merged, deduplicated context chunks for one turn and publishing
// them as the process's "last sources" snapshot. Grounded on the
// teacher's chat service (internal/service/chat.go) for its
// request-snapshot and logging shape, generalized from a
// single-LLM-call service into a two-source parallel retrieval join.
package orchestration

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"readest-ai-core/internal/model"
	"readest-ai-core/internal/ragerr"
	"readest-ai-core/internal/retriever"
)

// Request is a snapshot of everything one chat turn needs, captured
// at the moment the request starts so later UI state changes cannot
// affect an in-flight request.
type Request struct {
	BookHash    string
	CurrentPage int
	TopK        int
	MaxPage     *int
	Messages    []model.Message
}

// LatestUserMessage returns the text of the most recent user-role
// message, or "" if there is none.
func (r Request) LatestUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == model.RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Orchestrator prepares retrieval context for one chat turn and
// publishes it as the last-sources snapshot.
type Orchestrator struct {
	retriever *retriever.Retriever
	sources   *SourceSlot
	logger    *slog.Logger
}

// New builds an Orchestrator over the given Retriever.
func New(r *retriever.Retriever, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{retriever: r, sources: NewSourceSlot(), logger: logger}
}

// PrepareContext extracts the latest user message, runs page-context
// and hybrid-search retrieval in parallel when the book is indexed,
// merges page chunks first and deduplicates by chunk id, and
// publishes the result as the last-sources snapshot. If the book is
// not indexed, it publishes and returns an empty context rather than
// failing the turn. A retrieval error clears the last-sources slot
// before it is returned.
func (o *Orchestrator) PrepareContext(ctx context.Context, req Request) ([]model.ScoredChunk, error) {
	indexed, err := o.retriever.IsBookIndexed(ctx, req.BookHash)
	if err != nil {
		o.sources.Clear()
		return nil, err
	}
	if !indexed {
		o.sources.Set(nil)
		return nil, nil
	}

	query := req.LatestUserMessage()
	if query == "" {
		return nil, ragerr.InvalidQuery("orchestration.PrepareContext", errEmptyMessage)
	}

	var pageChunks, searchChunks []model.ScoredChunk
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		chunks, err := o.retriever.GetPageContextChunks(gctx, req.BookHash, req.CurrentPage)
		if err != nil {
			return err
		}
		pageChunks = chunks
		return nil
	})
	g.Go(func() error {
		chunks, err := o.retriever.HybridSearch(gctx, req.BookHash, query, req.TopK, req.MaxPage)
		if err != nil {
			return err
		}
		searchChunks = chunks
		return nil
	})
	if err := g.Wait(); err != nil {
		o.sources.Clear()
		return nil, err
	}

	merged := mergeDeduped(pageChunks, searchChunks)
	o.sources.Set(merged)
	return merged, nil
}

// LastSources returns the current last-sources snapshot, or nil if
// none has been published yet or it was cleared.
func (o *Orchestrator) LastSources() []model.ScoredChunk {
	return o.sources.Get()
}

// ClearLastSources empties the last-sources slot.
func (o *Orchestrator) ClearLastSources() {
	o.sources.Clear()
}

// mergeDeduped concatenates page chunks first, then search chunks,
// dropping any search chunk whose id already appeared among the page
// chunks.
func mergeDeduped(pageChunks, searchChunks []model.ScoredChunk) []model.ScoredChunk {
	seen := make(map[string]bool, len(pageChunks)+len(searchChunks))
	out := make([]model.ScoredChunk, 0, len(pageChunks)+len(searchChunks))
	for _, c := range pageChunks {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	for _, c := range searchChunks {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

type emptyMessageError struct{}

func (emptyMessageError) Error() string { return "no user message to answer" }

var errEmptyMessage = emptyMessageError{}
