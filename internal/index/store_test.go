package index

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStoreWithDB(db)
	if err != nil {
		t.Fatalf("NewStoreWithDB: %v", err)
	}
	return store
}

func TestAddAndSearch(t *testing.T) {
	store := newTestStore(t)

	docs := []struct {
		chunk Chunk
		vec   []float32
	}{
		{Chunk{Source: "paper-a.md", Section: "Intro", Content: "about neutrinos"}, []float32{1, 0, 0}},
		{Chunk{Source: "paper-b.md", Content: "about galaxies"}, []float32{0, 1, 0}},
		{Chunk{Source: "paper-c.md", Content: "about quarks"}, []float32{0.9, 0.1, 0}},
	}
	for _, d := range docs {
		if _, err := store.Add(d.chunk, d.vec); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	results, err := store.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Source != "paper-a.md" {
		t.Errorf("best match = %q, want paper-a.md", results[0].Source)
	}
	if results[1].Source != "paper-c.md" {
		t.Errorf("second match = %q, want paper-c.md", results[1].Source)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f then %f", results[0].Score, results[1].Score)
	}
	if results[0].Section != "Intro" {
		t.Errorf("section = %q, want Intro", results[0].Section)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestDeleteSource(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Add(Chunk{Source: "doc.md", Content: "chunk"}, []float32{1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.Add(Chunk{Source: "other.md", Content: "chunk"}, []float32{1}); err != nil {
		t.Fatal(err)
	}

	n, err := store.DeleteSource("doc.md")
	if err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d chunks, want 3", n)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75}
	decoded := decodeEmbedding(encodeEmbedding(vec))
	if len(decoded) != len(vec) {
		t.Fatalf("got %d dims, want %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("dim %d = %f, want %f", i, decoded[i], vec[i])
		}
	}
	if encodeEmbedding(nil) != nil {
		t.Error("empty embedding should encode to nil")
	}
}
