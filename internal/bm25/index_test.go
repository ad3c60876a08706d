package bm25

import "testing"

func TestIndex_SearchRanksExactMatchHigher(t *testing.T) {
	idx := New()
	idx.Add("c1", "The dragon flew over the castle at dawn.", "Ch1")
	idx.Add("c2", "The weather was mild and the garden bloomed.", "Ch2")
	idx.Add("c3", "A dragon guards the treasure deep in the cave.", "Ch3")

	hits := idx.Search("dragon treasure", 10)
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].DocID != "c3" {
		t.Errorf("expected c3 to rank first, got %s", hits[0].DocID)
	}
	for _, h := range hits {
		if h.DocID == "c2" {
			t.Errorf("c2 should not match a query with no overlapping terms, got hit %+v", h)
		}
	}
}

func TestIndex_SearchTruncatesToK(t *testing.T) {
	idx := New()
	for i := 0; i < 10; i++ {
		idx.Add(string(rune('a'+i)), "castle dragon knight story", "Chapter")
	}
	hits := idx.Search("dragon", 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
}

func TestIndex_SearchEmptyQueryReturnsEmpty(t *testing.T) {
	idx := New()
	idx.Add("c1", "some text", "Ch1")

	if hits := idx.Search("", 10); hits != nil {
		t.Errorf("expected nil hits for empty query, got %v", hits)
	}
	if hits := idx.Search("the and of", 10); hits != nil {
		t.Errorf("expected nil hits for stopwords-only query, got %v", hits)
	}
}

func TestIndex_SearchOnEmptyIndexReturnsEmpty(t *testing.T) {
	idx := New()
	if hits := idx.Search("dragon", 10); hits != nil {
		t.Errorf("expected nil hits on empty index, got %v", hits)
	}
}

func TestIndex_ChapterTitleIsIndexed(t *testing.T) {
	idx := New()
	idx.Add("c1", "general prose with no distinguishing terms", "Whispers of the Abyss")
	idx.Add("c2", "more unrelated filler content here", "Ordinary Chapter")

	hits := idx.Search("abyss", 10)
	if len(hits) != 1 || hits[0].DocID != "c1" {
		t.Fatalf("expected chapterTitle terms to be searchable, got %+v", hits)
	}
}

func TestIndex_MarshalUnmarshalRoundTrip(t *testing.T) {
	idx := New()
	idx.Add("c1", "The dragon flew over the castle.", "Ch1")
	idx.Add("c2", "A quiet garden in springtime.", "Ch2")

	data, err := idx.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	want := idx.Search("dragon castle", 10)
	got := restored.Search("dragon castle", 10)
	if len(want) != len(got) {
		t.Fatalf("expected %d hits after round trip, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i].DocID != got[i].DocID {
			t.Errorf("hit %d: expected %s, got %s", i, want[i].DocID, got[i].DocID)
		}
	}
}
