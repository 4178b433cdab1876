package index

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func TestSearchToolExecute(t *testing.T) {
	store := newTestStore(t)
	long := strings.Repeat("neutrino oscillation measurements ", 5)
	if _, err := store.Add(Chunk{Source: "paper.md", Content: long}, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}

	tool := NewSearchTool(store, &stubEmbedder{vec: []float32{1, 0}}, nil)
	args := map[string]string{"query": "neutrinos"}

	raw := tool.Execute(context.Background(), args)
	results, ok := raw.([]Result)
	if !ok || len(results) != 1 {
		t.Fatalf("expected 1 result, got %#v", raw)
	}

	text := tool.FormatResult(args, raw)
	if !strings.Contains(text, "Search results for query: neutrinos") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "Source 1: paper.md") {
		t.Errorf("missing source line: %q", text)
	}
}

func TestSearchToolEmbedderFailure(t *testing.T) {
	tool := NewSearchTool(newTestStore(t), &stubEmbedder{err: errors.New("ollama down")}, nil)
	args := map[string]string{"query": "q"}

	raw := tool.Execute(context.Background(), args)
	if raw != nil {
		t.Fatalf("expected nil on embedder failure, got %#v", raw)
	}

	text := tool.FormatResult(args, raw)
	if text != "No results found for query: q" {
		t.Errorf("unexpected failure text: %q", text)
	}
}

func TestSearchToolMissingQuery(t *testing.T) {
	tool := NewSearchTool(newTestStore(t), &stubEmbedder{vec: []float32{1}}, nil)
	if raw := tool.Execute(context.Background(), map[string]string{}); raw != nil {
		t.Fatalf("expected nil for missing query, got %#v", raw)
	}
}

func TestFormatResultFiltersPassages(t *testing.T) {
	tool := NewSearchTool(nil, nil, nil)
	long := strings.Repeat("dark matter halo profiles ", 4)
	results := []Result{
		{Chunk: Chunk{Source: "a.md", Content: "too short"}},
		{Chunk: Chunk{Source: "b.md", Content: long}},
		{Chunk: Chunk{Source: "c.md", Content: long}}, // duplicate content
	}

	text := tool.FormatResult(map[string]string{"query": "halos"}, results)
	if !strings.Contains(text, "Source 1: b.md") {
		t.Errorf("missing kept passage: %q", text)
	}
	if strings.Contains(text, "a.md") || strings.Contains(text, "c.md") {
		t.Errorf("filtered passages leaked: %q", text)
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	// Passage truncation counts runes, never cutting a multi-byte
	// character in half.
	got := truncate(strings.Repeat("λ", 20), 5)
	if got != strings.Repeat("λ", 5) {
		t.Errorf("truncate = %q, want 5 runes", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if short := truncate("abc", 5); short != "abc" {
		t.Errorf("truncate(short) = %q", short)
	}
}

func TestFormatResultAllFiltered(t *testing.T) {
	tool := NewSearchTool(nil, nil, nil)
	results := []Result{{Chunk: Chunk{Source: "a.md", Content: "tiny"}}}

	text := tool.FormatResult(map[string]string{"query": "q"}, results)
	if text != "No relevant information found." {
		t.Errorf("got %q", text)
	}
}
