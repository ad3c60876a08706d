package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"readest-ai-core/internal/contextutil"
	"readest-ai-core/internal/model"
	"readest-ai-core/internal/orchestration"
	"readest-ai-core/internal/ragerr"
)

// ChatHandler exposes orchestration.Orchestrator.PrepareContext: given
// a book, the reader's current page, and a message history, it returns
// the merged context chunks a caller would pass on to an LLM. This
// package stops at retrieval; prompt construction and generation are
// the caller's responsibility.
type ChatHandler struct {
	orchestrator *orchestration.Orchestrator
}

// NewChatHandler builds a ChatHandler over orch.
func NewChatHandler(orch *orchestration.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orch}
}

// ChatMessage is one turn of the request payload's message history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the HTTP request payload for /api/chat.
type ChatRequest struct {
	BookHash    string        `json:"book_hash"`
	CurrentPage int           `json:"current_page"`
	TopK        int           `json:"top_k,omitempty"`
	MaxPage     *int          `json:"max_page,omitempty"`
	Messages    []ChatMessage `json:"messages"`
}

// SourceChunk is one chunk returned as retrieval context.
type SourceChunk struct {
	ChunkID      string  `json:"chunk_id"`
	SectionIndex int     `json:"section_index"`
	ChapterTitle string  `json:"chapter_title,omitempty"`
	PageNumber   int     `json:"page_number"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	SearchMethod string  `json:"search_method"`
}

// ChatResponse is the HTTP response payload for /api/chat.
type ChatResponse struct {
	Sources []SourceChunk `json:"sources"`
}

// ErrorResponse is a JSON-encoded error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookHash == "" {
		writeError(w, http.StatusBadRequest, "book_hash is required")
		return
	}

	messages := make([]model.Message, len(req.Messages))
	for i, m := range req.Messages {
		role := model.RoleUser
		if m.Role == string(model.RoleAssistant) {
			role = model.RoleAssistant
		}
		messages[i] = model.Message{Role: role, Content: m.Content}
	}

	orchReq := orchestration.Request{
		BookHash:    req.BookHash,
		CurrentPage: req.CurrentPage,
		TopK:        req.TopK,
		MaxPage:     req.MaxPage,
		Messages:    messages,
	}

	chunks, err := h.orchestrator.PrepareContext(ctx, orchReq)
	if err != nil {
		h.handleError(w, ctx, err)
		return
	}

	sources := make([]SourceChunk, len(chunks))
	for i, c := range chunks {
		sources[i] = SourceChunk{
			ChunkID:      c.ID,
			SectionIndex: c.SectionIndex,
			ChapterTitle: c.ChapterTitle,
			PageNumber:   c.PageNumber,
			Text:         c.Text,
			Score:        c.Score,
			SearchMethod: string(c.SearchMethod),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ChatResponse{Sources: sources}); err != nil {
		logger.ErrorContext(ctx, "failed to encode chat response", "error", err)
	}
}

func (h *ChatHandler) handleError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "orchestration error", "error", err)

	if ragerr.Is(err, ragerr.KindInvalidQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ragerr.Is(err, ragerr.KindEmbeddingError) {
		writeError(w, http.StatusBadGateway, "embedding provider unavailable")
		return
	}
	if ragerr.Is(err, ragerr.KindStoreError) {
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
