// Package embedding defines the embedding-provider contract the
// Indexer and Retriever depend on, and an OpenAI-compatible HTTP
// implementation of it. Provider construction and transport are
// external collaborators per this module's scope; only the retry,
// timeout and cancellation wrapping around them are CORE.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks readest-ai-core/internal/embedding Provider

import "context"

// Provider is the capability the Indexer and Retriever consume:
// embed one piece of text, or embed many in a single round trip.
// Implementations must forward ctx cancellation into any in-flight
// transport call.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the fixed length of vectors this provider
	// produces, or 0 if it is not yet known (before any call).
	Dimension() int
	// ModelName identifies the embedding model, recorded in
	// BookIndexMeta so re-indexing can detect a model change.
	ModelName() string
}
