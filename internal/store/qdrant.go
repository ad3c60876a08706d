package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"readest-ai-core/internal/model"
)

// VectorBackend is the capability the exact in-process cosine scanner
// in vector.go satisfies implicitly; QdrantVectorBackend is an
// alternate implementation of the same search shape for deployments
// whose per-book corpus has grown past what an in-process scan over
// cached chunks can serve. Every book's vectors share one Qdrant
// collection, distinguished by a "book_hash" payload field, since
// Qdrant collections are too heavyweight to create one per book.
type VectorBackend interface {
	UpsertChunks(ctx context.Context, bookHash string, chunks []model.Chunk) error
	SearchChunks(ctx context.Context, bookHash string, queryEmbedding []float32, k int, maxPage *int) ([]model.ScoredChunk, error)
	DeleteBook(ctx context.Context, bookHash string) error
}

// QdrantVectorBackend implements VectorBackend against a Qdrant
// server, filtering on a book_hash payload field rather than a
// per-collection or per-vault split.
type QdrantVectorBackend struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantVectorBackend dials a Qdrant server at urlStr (an
// "http://host:port" address; the gRPC port is derived as HTTP
// port+1, matching the server's default port offset) and targets
// collection for every book's vectors.
func NewQdrantVectorBackend(urlStr, collection string) (*QdrantVectorBackend, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := 6334
	if p := parsed.Port(); p != "" {
		if httpPort, err := strconv.Atoi(p); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantVectorBackend{client: client, collection: collection}, nil
}

// EnsureCollection creates the shared collection with the given vector
// dimension if it does not already exist.
func (b *QdrantVectorBackend) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := b.client.CollectionExists(ctx, b.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	return b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: b.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// UpsertChunks writes every embedded chunk as a point tagged with
// bookHash. Chunks without an embedding are skipped since Qdrant has
// no representation for a vector-less point.
func (b *QdrantVectorBackend) UpsertChunks(ctx context.Context, bookHash string, chunks []model.Chunk) error {
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		if !c.HasEmbedding() {
			continue
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunkPointID(bookHash, c.ID)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"book_hash":     bookHash,
				"chunk_id":      c.ID,
				"section_index": c.SectionIndex,
				"chapter_title": c.ChapterTitle,
				"page_number":   c.PageNumber,
				"text":          c.Text,
			}),
		})
	}
	if len(points) == 0 {
		return nil
	}
	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: b.collection, Points: points})
	if err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// SearchChunks runs a cosine search scoped to bookHash, mirroring
// vectorSearch's maxPage spoiler filter by over-fetching and dropping
// later pages client-side.
func (b *QdrantVectorBackend) SearchChunks(ctx context.Context, bookHash string, queryEmbedding []float32, k int, maxPage *int) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	// maxPage (the spoiler filter) has no confirmed range-query helper
	// in this client version, so over-fetch and filter client-side
	// rather than guess at an unverified Condition constructor.
	fetchLimit := uint64(k)
	if maxPage != nil {
		fetchLimit = uint64(k * 5)
	}

	results, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: b.collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch("book_hash", bookHash)}},
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	out := make([]model.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk := chunkFromPayload(r.Payload)
		if maxPage != nil && chunk.PageNumber > *maxPage {
			continue
		}
		out = append(out, model.ScoredChunk{Chunk: chunk, Score: float64(r.Score), SearchMethod: model.SearchMethodVector})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// DeleteBook removes every point tagged with bookHash, used when a
// book's index is cleared or rebuilt. Points are located by a search
// scoped to bookHash and deleted by id, since this client version's
// confirmed Delete path takes explicit point ids (see
// UpsertChunks/chunkPointID) rather than an unverified filter-delete
// helper.
func (b *QdrantVectorBackend) DeleteBook(ctx context.Context, bookHash string) error {
	scroll, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: b.collection,
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch("book_hash", bookHash)}},
		Limit:          uint64Ptr(10000),
	})
	if err != nil {
		return fmt.Errorf("failed to list book points: %w", err)
	}
	if len(scroll) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(scroll))
	for _, r := range scroll {
		if r.Id != nil {
			ids = append(ids, r.Id)
		}
	}
	_, err = b.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: b.collection,
		Points:         qdrant.NewPointsSelector(ids...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if len(scroll) == 10000 {
		// A full page may not be the last one; repeat until one is short.
		return b.DeleteBook(ctx, bookHash)
	}
	return nil
}

// chunkPointID derives a stable Qdrant point id from a book hash and
// chunk id so re-indexing the same chunk upserts in place. Qdrant
// accepts only unsigned integers or UUIDs as point ids, so the pair is
// hashed into a name-based (SHA-1) UUID.
func chunkPointID(bookHash, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(bookHash+":"+chunkID)).String()
}

func chunkFromPayload(payload map[string]*qdrant.Value) model.Chunk {
	get := func(key string) *qdrant.Value { return payload[key] }
	strVal := func(key string) string {
		if v := get(key); v != nil {
			return v.GetStringValue()
		}
		return ""
	}
	intVal := func(key string) int {
		if v := get(key); v != nil {
			return int(v.GetIntegerValue())
		}
		return 0
	}
	return model.Chunk{
		ID:           strVal("chunk_id"),
		BookHash:     strVal("book_hash"),
		SectionIndex: intVal("section_index"),
		ChapterTitle: strVal("chapter_title"),
		PageNumber:   intVal("page_number"),
		Text:         strVal("text"),
	}
}

func uint64Ptr(v uint64) *uint64 { return &v }
