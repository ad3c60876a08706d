package store

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestChunkPointID_StableForSameInputs(t *testing.T) {
	a := chunkPointID("book1", "chunk1")
	b := chunkPointID("book1", "chunk1")
	if a != b {
		t.Fatalf("expected stable id, got %q and %q", a, b)
	}
	if chunkPointID("book1", "chunk1") == chunkPointID("book2", "chunk1") {
		t.Fatal("expected different books to produce different point ids")
	}
}

func TestChunkFromPayload_RoundTripsFields(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"chunk_id":      {Kind: &qdrant.Value_StringValue{StringValue: "c1"}},
		"book_hash":     {Kind: &qdrant.Value_StringValue{StringValue: "book1"}},
		"section_index": {Kind: &qdrant.Value_IntegerValue{IntegerValue: 2}},
		"chapter_title": {Kind: &qdrant.Value_StringValue{StringValue: "Chapter One"}},
		"page_number":   {Kind: &qdrant.Value_IntegerValue{IntegerValue: 5}},
		"text":          {Kind: &qdrant.Value_StringValue{StringValue: "hello world"}},
	}

	c := chunkFromPayload(payload)
	if c.ID != "c1" || c.BookHash != "book1" || c.SectionIndex != 2 || c.ChapterTitle != "Chapter One" || c.PageNumber != 5 || c.Text != "hello world" {
		t.Fatalf("unexpected chunk from payload: %+v", c)
	}
}

func TestChunkFromPayload_MissingFieldsAreZeroValues(t *testing.T) {
	c := chunkFromPayload(map[string]*qdrant.Value{})
	if c.ID != "" || c.SectionIndex != 0 || c.PageNumber != 0 {
		t.Fatalf("expected zero values, got %+v", c)
	}
}
