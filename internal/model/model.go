// Package model defines the entities shared by every CORE subsystem.
// None of these types own persistence or scoring logic; they are the
// data shapes that flow between the Chunker, Indexer, Store and
// Retriever.
package model

import "time"

// SearchMethod tags how a ScoredChunk was produced.
type SearchMethod string

const (
	SearchMethodVector  SearchMethod = "vector"
	SearchMethodBM25    SearchMethod = "bm25"
	SearchMethodHybrid  SearchMethod = "hybrid"
	SearchMethodContext SearchMethod = "context"
)

// ContextScore is the fixed score assigned to page/section context
// chunks so they always outrank a fused hybrid result (whose score is
// bounded to [0,1]).
const ContextScore = 2.0

// Chunk is the atomic unit of retrieval: a contiguous passage of book
// text anchored to a page and section.
type Chunk struct {
	ID           string
	BookHash     string
	SectionIndex int
	ChapterTitle string
	PageNumber   int
	Text         string
	Embedding    []float32 // nil until the Indexer assigns it
}

// HasEmbedding reports whether the chunk carries a vector.
func (c Chunk) HasEmbedding() bool { return len(c.Embedding) > 0 }

// BookIndexMeta is the commit marker for a book's index: written last
// in an indexing run, it is the single source of truth for whether a
// book is considered indexed.
type BookIndexMeta struct {
	BookHash           string
	BookTitle          string
	AuthorName         string
	TotalSections      int
	TotalChunks        int
	EmbeddingModel     string
	EmbeddingDimension int
	PageSizeChars      int
	LastUpdated        time.Time
}

// Indexed reports whether the book this meta describes has a
// non-empty persisted index.
func (m BookIndexMeta) Indexed() bool { return m.TotalChunks > 0 }

// ScoredChunk is a Chunk annotated with a retrieval score. It is
// transient and never persisted.
type ScoredChunk struct {
	Chunk
	Score        float64
	SearchMethod SearchMethod
}

// Role identifies the author of a persisted Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups an ordered sequence of Messages for one book.
type Conversation struct {
	ID        string
	BookHash  string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of a Conversation. The system role is never
// persisted; only user/assistant turns survive.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// IndexingStatus is the lifecycle state of an in-flight or completed
// indexing run for one book.
type IndexingStatus string

const (
	IndexingStatusIdle     IndexingStatus = "idle"
	IndexingStatusIndexing IndexingStatus = "indexing"
	IndexingStatusComplete IndexingStatus = "complete"
	IndexingStatusError    IndexingStatus = "error"
)

// IndexingState is ephemeral, in-memory-only progress tracking for a
// single book's indexing run. It is discarded on clear and never
// persisted alongside the durable entities above.
type IndexingState struct {
	Status          IndexingStatus
	Progress        int // 0-100
	ChunksProcessed int
	TotalChunks     int
	Err             error
}

// TOCEntry is one entry of a book's table of contents, used by the
// Chunker to resolve chapter titles for a section.
type TOCEntry struct {
	SectionID int
	Label     string
}

// Phase names the three progress phases an indexing run reports.
type Phase string

const (
	PhaseChunking  Phase = "chunking"
	PhaseEmbedding Phase = "embedding"
	PhaseIndexing  Phase = "indexing"
)

// Progress is the event shape emitted via onProgress during indexing.
type Progress struct {
	Current int
	Total   int
	Phase   Phase
}
