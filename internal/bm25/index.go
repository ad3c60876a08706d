// Package bm25 implements a from-scratch Okapi BM25 lexical index over
// a book's chunks, a deliberate stdlib-only implementation (see
// DESIGN.md for the justification).
package bm25

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"
)

const (
	// k1 controls term-frequency saturation.
	k1 = 1.2
	// b controls document-length normalization.
	b = 0.75
)

// posting is one occurrence record: how many times a term appears in
// a given document.
type posting struct {
	DocID string
	Freq  int
}

// Index is an Okapi BM25 lexical index keyed by chunk id, built over
// two fields: a chunk's text and its chapterTitle. The stemmer is
// disabled throughout: terms are matched exactly as tokenized.
type Index struct {
	Postings  map[string][]posting // term -> postings
	DocLen    map[string]int       // docID -> token count
	DocOrder  []string             // stable order for serialization / iteration
	TotalLen  int
	N         int
}

// New returns an empty index ready to be built via Add.
func New() *Index {
	return &Index{
		Postings: make(map[string][]posting),
		DocLen:   make(map[string]int),
	}
}

// Add indexes one document under id, combining its two indexed fields.
// Calling Add twice with the same id is not supported; build a fresh
// Index per indexing run instead (the Store replaces the BM25 index
// wholesale on re-index, never patches it in place).
func (idx *Index) Add(id, text, chapterTitle string) {
	tokens := tokenize(text + " " + chapterTitle)
	if len(tokens) == 0 {
		idx.DocLen[id] = 0
		idx.DocOrder = append(idx.DocOrder, id)
		idx.N++
		return
	}

	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}
	for term, freq := range freqs {
		idx.Postings[term] = append(idx.Postings[term], posting{DocID: id, Freq: freq})
	}
	idx.DocLen[id] = len(tokens)
	idx.DocOrder = append(idx.DocOrder, id)
	idx.TotalLen += len(tokens)
	idx.N++
}

func (idx *Index) avgDocLen() float64 {
	if idx.N == 0 {
		return 0
	}
	return float64(idx.TotalLen) / float64(idx.N)
}

// Hit is one scored document id from a Search call.
type Hit struct {
	DocID string
	Score float64
}

// Search ranks documents against query using Okapi BM25 and returns up
// to k hits sorted by score descending. A query that tokenizes to
// nothing (e.g. punctuation-only, or stopwords-only) is treated as a
// parse failure: it returns an empty list rather than an error, per
// this index's InvalidQuery contract.
func (idx *Index) Search(query string, k int) []Hit {
	terms := tokenize(query)
	if len(terms) == 0 || idx.N == 0 {
		return nil
	}

	avgdl := idx.avgDocLen()
	scores := make(map[string]float64)
	for _, term := range terms {
		postings, ok := idx.Postings[term]
		if !ok {
			continue
		}
		n := float64(len(postings))
		idf := math.Log((float64(idx.N)-n+0.5)/(n+0.5) + 1)
		for _, p := range postings {
			dl := float64(idx.DocLen[p.DocID])
			denom := float64(p.Freq) + k1*(1-b+b*dl/avgdl)
			if denom == 0 {
				continue
			}
			scores[p.DocID] += idf * (float64(p.Freq) * (k1 + 1)) / denom
		}
	}
	if len(scores) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{DocID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// serializedIndex is the gob-encoded wire shape. It is kept distinct
// from Index so the on-disk format stays stable even if Index grows
// unexported bookkeeping fields later.
type serializedIndex struct {
	Postings map[string][]posting
	DocLen   map[string]int
	DocOrder []string
	TotalLen int
	N        int
}

// Marshal serializes the index to an opaque gob-encoded byte string;
// the encoding carries no format version.
// The format is treated as opaque-but-stable per this module's design
// notes, so the underlying lexical implementation can be swapped
// without changing the BM25Index entity's on-disk contract.
func (idx *Index) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	s := serializedIndex{
		Postings: idx.Postings,
		DocLen:   idx.DocLen,
		DocOrder: idx.DocOrder,
		TotalLen: idx.TotalLen,
		N:        idx.N,
	}
	if err := gob.NewEncoder(&buf).Encode(&s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes an index previously produced by Marshal.
func Unmarshal(data []byte) (*Index, error) {
	var s serializedIndex
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, err
	}
	idx := &Index{
		Postings: s.Postings,
		DocLen:   s.DocLen,
		DocOrder: s.DocOrder,
		TotalLen: s.TotalLen,
		N:        s.N,
	}
	if idx.Postings == nil {
		idx.Postings = make(map[string][]posting)
	}
	if idx.DocLen == nil {
		idx.DocLen = make(map[string]int)
	}
	return idx, nil
}
