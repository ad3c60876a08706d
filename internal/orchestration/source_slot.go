package orchestration

import (
	"sync/atomic"

	"readest-ai-core/internal/model"
)

// SourceSlot is a single-writer, many-reader "last sources" snapshot:
// a process-wide observable cell holding the most recent retrieval's
// chunks, cleared on explicit reset. Backed by atomic.Pointer so
// readers never observe a torn/partial slice; a write replaces the
// pointer wholesale rather than mutating a shared slice in place.
type SourceSlot struct {
	value atomic.Pointer[[]model.ScoredChunk]
}

// NewSourceSlot builds an empty slot.
func NewSourceSlot() *SourceSlot { return &SourceSlot{} }

// Set publishes chunks as the current snapshot.
func (s *SourceSlot) Set(chunks []model.ScoredChunk) {
	s.value.Store(&chunks)
}

// Get returns the current snapshot, or nil if empty.
func (s *SourceSlot) Get() []model.ScoredChunk {
	p := s.value.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Clear empties the slot.
func (s *SourceSlot) Clear() {
	s.value.Store(nil)
}
