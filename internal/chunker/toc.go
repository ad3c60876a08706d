package chunker

import (
	"strconv"

	"readest-ai-core/internal/model"
)

// ResolveChapterTitle returns the chapter title for section i: the
// label of the last TOC entry whose SectionID <= i, or "Section {i+1}"
// if the TOC is empty or no entry qualifies. The TOC is assumed to be
// in ascending SectionID order, as the external parser produces it.
func ResolveChapterTitle(toc []model.TOCEntry, sectionIndex int) string {
	label, found := "", false
	for _, entry := range toc {
		if entry.SectionID <= sectionIndex {
			label = entry.Label
			found = true
		}
	}
	if !found {
		return "Section " + strconv.Itoa(sectionIndex+1)
	}
	return label
}
