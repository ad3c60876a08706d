package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// ChunkerVersion identifies the chunking algorithm's shape, folded
// into IndexVersion so a chunker change is visible in the stats
// without needing a schema migration.
const ChunkerVersion = "v1-page-anchored-overlap"

// TokensPerRune approximates a token as four characters, matching the
// teacher's rough token estimator (no tokenizer dependency in scope).
const TokensPerRune = 4.0

// ChunkTokenStats summarizes the estimated token counts across a
// book's chunks.
type ChunkTokenStats struct {
	Min  int
	Max  int
	Mean float64
	P95  int
}

// CoverageStats reports operational visibility into one book's
// persisted index: how many chunks exist, how many carry embeddings,
// and a stable version fingerprint over the parameters that produced
// them.
type CoverageStats struct {
	TotalChunks     int
	ChunksEmbedded  int
	ChunkTokenStats ChunkTokenStats
	ChunkerVersion  string
	IndexVersion    string
}

// CoverageStats computes coverage statistics for bookHash from its
// persisted chunks and meta. Returns an empty report (TotalChunks=0)
// if the book has no persisted chunks.
func (ix *Indexer) CoverageStats(ctx context.Context, bookHash string) (CoverageStats, error) {
	st, err := ix.stores.Get(bookHash)
	if err != nil {
		return CoverageStats{}, err
	}

	chunks, err := st.Chunks(ctx)
	if err != nil {
		return CoverageStats{}, err
	}

	stats := CoverageStats{
		TotalChunks:    len(chunks),
		ChunkerVersion: ChunkerVersion,
	}
	if len(chunks) == 0 {
		return stats, nil
	}

	tokenCounts := make([]int, 0, len(chunks))
	for _, c := range chunks {
		if c.HasEmbedding() {
			stats.ChunksEmbedded++
		}
		runeCount := utf8.RuneCountInString(c.Text)
		tokenCount := int(math.Round(float64(runeCount) / TokensPerRune))
		if tokenCount < 1 {
			tokenCount = 1
		}
		tokenCounts = append(tokenCounts, tokenCount)
	}
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	meta, ok, err := st.Meta(ctx)
	if err != nil {
		return CoverageStats{}, err
	}
	embeddingModel, pageSizeChars := "", 0
	if ok {
		embeddingModel, pageSizeChars = meta.EmbeddingModel, meta.PageSizeChars
	}
	input := fmt.Sprintf("%s|%s|pageSizeChars=%d", ChunkerVersion, embeddingModel, pageSizeChars)
	hash := sha256.Sum256([]byte(input))
	stats.IndexVersion = hex.EncodeToString(hash[:])[:16]

	return stats, nil
}

func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range tokenCounts {
		sum += c
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	if p95Index < 0 {
		p95Index = 0
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
