package store

import (
	"sort"

	"readest-ai-core/internal/bm25"
	"readest-ai-core/internal/model"
)

const (
	vectorWeight = 1.0
	bm25Weight   = 0.8
	dedupKeyLen  = 100
)

// fuseHybrid fuses precomputed vector and BM25 candidate lists (each
// already fetched at 2k candidates by the caller) into one ranked
// result:
//  1. normalize each list's scores by its own max (0 if max is 0);
//  2. weight vector x1.0, bm25 x0.8;
//  3. merge by the first 100 characters of text as a dedup key,
//     keeping max(vectorNorm, bm25Norm*weight) and tagging the merged
//     result "hybrid";
//  4. sort by final score descending, truncate to k.
func fuseHybrid(vectorHits, bm25Hits []model.ScoredChunk, k int) []model.ScoredChunk {
	normVector := normalize(vectorHits)
	normBM25 := normalize(bm25Hits)

	type merged struct {
		chunk      model.Chunk
		score      float64
		fromVector bool
		fromBM25   bool
	}
	byKey := make(map[string]*merged)
	var order []string

	for _, sc := range normVector {
		key := dedupKey(sc.Text)
		byKey[key] = &merged{chunk: sc.Chunk, score: sc.Score * vectorWeight, fromVector: true}
		order = append(order, key)
	}
	for _, sc := range normBM25 {
		key := dedupKey(sc.Text)
		weighted := sc.Score * bm25Weight
		if existing, ok := byKey[key]; ok {
			if weighted > existing.score {
				existing.score = weighted
			}
			existing.fromBM25 = true
			continue
		}
		byKey[key] = &merged{chunk: sc.Chunk, score: weighted, fromBM25: true}
		order = append(order, key)
	}

	results := make([]model.ScoredChunk, 0, len(order))
	for _, key := range order {
		m := byKey[key]
		method := model.SearchMethodVector
		switch {
		case m.fromVector && m.fromBM25:
			method = model.SearchMethodHybrid
		case m.fromBM25:
			method = model.SearchMethodBM25
		}
		results = append(results, model.ScoredChunk{Chunk: m.chunk, Score: m.score, SearchMethod: method})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// normalize divides each score by the list's max score; if the max is
// zero, every score becomes zero.
func normalize(hits []model.ScoredChunk) []model.ScoredChunk {
	if len(hits) == 0 {
		return hits
	}
	max := hits[0].Score
	for _, h := range hits {
		if h.Score > max {
			max = h.Score
		}
	}
	out := make([]model.ScoredChunk, len(hits))
	copy(out, hits)
	if max == 0 {
		for i := range out {
			out[i].Score = 0
		}
		return out
	}
	for i := range out {
		out[i].Score = out[i].Score / max
	}
	return out
}

func dedupKey(text string) string {
	runes := []rune(text)
	if len(runes) <= dedupKeyLen {
		return text
	}
	return string(runes[:dedupKeyLen])
}

// bm25SearchChunks queries the lexical index and maps hits back to
// chunks, applying the spoiler filter. A query that fails to tokenize
// returns an empty list, never an error.
func bm25SearchChunks(chunks []model.Chunk, idx *bm25.Index, query string, k int, maxPage *int) []model.ScoredChunk {
	byID := make(map[string]model.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	hits := idx.Search(query, 0) // fetch all matches, filter, then truncate
	results := make([]model.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		chunk, ok := byID[h.DocID]
		if !ok {
			continue
		}
		if maxPage != nil && chunk.PageNumber > *maxPage {
			continue
		}
		results = append(results, model.ScoredChunk{Chunk: chunk, Score: h.Score, SearchMethod: model.SearchMethodBM25})
		if k > 0 && len(results) >= k {
			break
		}
	}
	return results
}
