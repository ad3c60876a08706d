package store

import (
	"math"
	"sort"

	"readest-ai-core/internal/model"
)

// cosineSimilarity returns the cosine of the angle between a and b. If
// either vector's norm is zero, or the vectors disagree in length, the
// score is 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// vectorSearch performs an exact cosine similarity scan over chunks
// with embeddings, per this module's Non-goal against building any
// approximate-nearest-neighbor structure for a book-sized corpus.
// Chunks without embeddings are skipped; if maxPage is non-nil, chunks
// whose PageNumber exceeds it are also skipped (spoiler filter).
func vectorSearch(chunks []model.Chunk, queryEmbedding []float32, k int, maxPage *int) []model.ScoredChunk {
	type scored struct {
		chunk model.Chunk
		score float64
	}
	var candidates []scored
	for _, c := range chunks {
		if !c.HasEmbedding() {
			continue
		}
		if maxPage != nil && c.PageNumber > *maxPage {
			continue
		}
		score := cosineSimilarity(queryEmbedding, c.Embedding)
		candidates = append(candidates, scored{chunk: c, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]model.ScoredChunk, len(candidates))
	for i, c := range candidates {
		out[i] = model.ScoredChunk{Chunk: c.chunk, Score: c.score, SearchMethod: model.SearchMethodVector}
	}
	return out
}
