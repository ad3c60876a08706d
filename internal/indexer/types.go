package indexer

import (
	"readest-ai-core/internal/chunker"
	"readest-ai-core/internal/model"
)

// SectionDoc is one section of a book document as the indexer sees
// it: a parsed DOM plus the character offset where it begins in the
// book's linear order, used to derive page numbers.
type SectionDoc struct {
	DOM              chunker.SectionDOM
	CumulativeOffset int
}

// BookDocument is the parsed input to IndexBook: the book's sections
// in reading order plus its table of contents. Parsing a raw book
// file into this shape is an external collaborator's job, out of this
// module's scope.
type BookDocument struct {
	Sections []SectionDoc
	TOC      []model.TOCEntry
}

// Settings configures one indexBook run.
type Settings struct {
	// PageSizeChars overrides the book's page-numbering constant. Zero
	// means "use DefaultPageSizeChars".
	PageSizeChars int
	// EmbeddingBatchSize overrides the number of texts embedded per
	// provider round trip. Zero means "use DefaultEmbeddingBatchSize".
	EmbeddingBatchSize int
}

// ProgressFunc receives the three-phase progress events an indexBook
// run reports.
type ProgressFunc func(model.Progress)

func reportProgress(onProgress ProgressFunc, current, total int, phase model.Phase) {
	if onProgress == nil {
		return
	}
	onProgress(model.Progress{Current: current, Total: total, Phase: phase})
}
