// Package store is the per-book durable layer: chunks, a serialized
// BM25 index, book metadata and conversations, all behind a warm
// in-memory cache. Each book owns an isolated namespace so clearing
// one book can never affect another.
package store

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_backend.go -package=mocks readest-ai-core/internal/store Backend

import (
	"context"
	"time"

	"readest-ai-core/internal/model"
)

// Backend is the storage capability interface factored out per this
// module's design notes, so the concrete per-book persistence engine
// (SQLite today) can be swapped for another embedded store without
// touching the Retriever or Indexer. One Backend instance is scoped
// to exactly one book.
type Backend interface {
	SaveChunks(ctx context.Context, chunks []model.Chunk) error
	LoadChunks(ctx context.Context) ([]model.Chunk, error)

	SaveBM25(ctx context.Context, data []byte) error
	LoadBM25(ctx context.Context) ([]byte, error)

	SaveMeta(ctx context.Context, meta model.BookIndexMeta) error
	LoadMeta(ctx context.Context) (model.BookIndexMeta, bool, error)

	ClearBook(ctx context.Context) error

	SaveConversation(ctx context.Context, c model.Conversation) error
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (model.Conversation, bool, error)
	UpdateConversationTitle(ctx context.Context, id, title string, updatedAt time.Time) (model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	SaveMessage(ctx context.Context, m model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	Close() error
}

// Clock abstracts time.Now so tests can control timestamps; the
// default is time.Now.
type Clock func() time.Time
