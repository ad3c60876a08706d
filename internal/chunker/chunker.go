// Package chunker turns a book's section DOMs into overlapping,
// page-anchored text chunks with stable identifiers. It is grounded on
// the heading-hierarchy AST walk of a markdown chunker, retargeted from
// heading-boundary chunks to fixed-size overlapping windows anchored to
// page numbers, per the book-reader retrieval contract.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"readest-ai-core/internal/model"
)

const (
	// TargetChunkSize is the default window size in characters.
	TargetChunkSize = 1000
	// OverlapFraction is the fraction of TargetChunkSize repeated at
	// the start of the next window.
	OverlapFraction = 0.175
	// MinSectionSize is the minimum extracted-text length a section
	// must have to be chunked at all; shorter sections are skipped.
	MinSectionSize = 100
)

// Section is one linear-order unit of a book document, as handed to
// the Chunker by the (out of scope) book-document parser.
type Section struct {
	Index            int
	DOM              SectionDOM
	CumulativeOffset int // character offset of this section from book start
}

// Chunker converts sections into page-anchored chunks.
type Chunker struct {
	logger        *slog.Logger
	targetSize    int
	overlap       int
	pageSizeChars int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger overrides the default no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chunker) { c.logger = l }
}

// WithTargetSize overrides the default window size in characters.
func WithTargetSize(chars int) Option {
	return func(c *Chunker) {
		if chars > 0 {
			c.targetSize = chars
		}
	}
}

// New builds a Chunker. pageSizeChars is the page-numbering constant
// recorded in BookIndexMeta at indexing time (see design note on page
// numbering); callers should pass the same value used for the whole
// book so page numbers stay comparable across sections.
func New(pageSizeChars int, opts ...Option) *Chunker {
	c := &Chunker{
		logger:        slog.Default(),
		targetSize:    TargetChunkSize,
		pageSizeChars: pageSizeChars,
	}
	c.overlap = int(float64(c.targetSize) * OverlapFraction)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChunkSection extracts text from one section and slices it into
// page-anchored, overlapping chunks. A malformed section is skipped
// rather than aborting the whole book, per the Chunker's failure
// contract: a DOM extraction panic is logged and yields no chunks, and
// a section with fewer than MinSectionSize characters yields no chunks
// without logging.
func (c *Chunker) ChunkSection(section Section, bookHash, chapterTitle string) (chunks []model.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chunker: section extraction panicked, skipping",
				"sectionIndex", section.Index, "recover", r)
			chunks = nil
		}
	}()

	text := section.DOM.ExtractText()
	if utf8.RuneCountInString(text) < MinSectionSize {
		return nil
	}

	windows := windowize([]rune(text), c.targetSize, c.overlap)
	chunks = make([]model.Chunk, 0, len(windows))
	for ordinal, w := range windows {
		startOffset := section.CumulativeOffset + w.start
		pageNumber := startOffset / c.pageSizeChars
		chunks = append(chunks, model.Chunk{
			ID:           chunkID(bookHash, section.Index, ordinal),
			BookHash:     bookHash,
			SectionIndex: section.Index,
			ChapterTitle: chapterTitle,
			PageNumber:   pageNumber,
			Text:         w.text,
		})
	}
	return chunks
}

// ChunkBook chunks every section of a book, resolving each section's
// chapter title from the TOC. Sections that fail extraction are
// skipped; they never abort the run.
func (c *Chunker) ChunkBook(bookHash string, sections []Section, toc []model.TOCEntry) []model.Chunk {
	var all []model.Chunk
	for _, s := range sections {
		title := ResolveChapterTitle(toc, s.Index)
		chunks := c.ChunkSection(s, bookHash, title)
		if chunks == nil {
			c.logger.Debug("chunker: section skipped", "sectionIndex", s.Index)
			continue
		}
		all = append(all, chunks...)
	}
	return all
}

type window struct {
	start int // rune offset into the section's extracted text
	text  string
}

// windowize slices runes into overlapping windows of approximately
// targetSize, splitting preferentially at sentence boundaries, falling
// back to word boundaries, and never splitting mid-word.
func windowize(runes []rune, targetSize, overlap int) []window {
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= targetSize {
		return []window{{start: 0, text: string(runes)}}
	}

	var windows []window
	start := 0
	for start < n {
		end := start + targetSize
		if end >= n {
			windows = append(windows, window{start: start, text: string(runes[start:])})
			break
		}

		splitAt := findSplitPoint(runes, start, end)
		windows = append(windows, window{start: start, text: string(runes[start:splitAt])})

		next := splitAt - overlap
		if next <= start {
			next = splitAt
		}
		start = next
	}
	return windows
}

// findSplitPoint looks backward from end for a sentence boundary, then
// a word boundary, never returning a point inside a word. runes[start:end]
// is searched in byte space (strings.LastIndex*), so every match offset
// is converted back to a rune count before being added to start; the
// delimiters themselves are all single-byte ASCII, so only the offset of
// the match, not its length, needs converting.
func findSplitPoint(runes []rune, start, end int) int {
	w := string(runes[start:end])

	if idx := strings.LastIndex(w, ". "); idx != -1 && idx > 0 {
		return start + utf8.RuneCountInString(w[:idx]) + 2
	}
	if idx := strings.LastIndexAny(w, "!?"); idx != -1 && idx > 0 {
		return start + utf8.RuneCountInString(w[:idx]) + 1
	}
	if idx := strings.LastIndex(w, "\n"); idx != -1 && idx > 0 {
		return start + utf8.RuneCountInString(w[:idx]) + 1
	}
	if idx := strings.LastIndex(w, " "); idx != -1 && idx > 0 {
		return start + utf8.RuneCountInString(w[:idx]) + 1
	}
	return end
}

// chunkID derives a stable id from the book, section, and the chunk's
// ordinal within that section, so re-chunking identical input yields
// an identical id set.
func chunkID(bookHash string, sectionIndex, ordinal int) string {
	h := sha256.Sum256([]byte(bookHash + "|" + strconv.Itoa(sectionIndex) + "|" + strconv.Itoa(ordinal)))
	return hex.EncodeToString(h[:])[:32]
}
