package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockProvider is a simple test provider.
type mockProvider struct {
	name    string
	results []Result
	err     error
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(_ context.Context, _ string, _ Options) ([]Result, error) {
	return m.results, m.err
}

func TestManagerSearch(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{
		name: "mock",
		results: []Result{
			{Title: "Test", URL: "https://example.com", Snippet: "A test result"},
		},
	})

	results, err := mgr.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Test" {
		t.Errorf("expected title 'Test', got %q", results[0].Title)
	}
}

func TestManagerSearchWith(t *testing.T) {
	mgr := NewManager("primary")
	mgr.Register(&mockProvider{name: "primary", results: []Result{{Title: "Primary"}}})
	mgr.Register(&mockProvider{name: "secondary", results: []Result{{Title: "Secondary"}}})

	results, err := mgr.SearchWith(context.Background(), "secondary", "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Title != "Secondary" {
		t.Errorf("expected 'Secondary', got %q", results[0].Title)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("missing")
	if _, err := mgr.Search(context.Background(), "test", Options{}); err == nil {
		t.Fatal("expected error for missing provider")
	}
	if mgr.Configured() {
		t.Error("empty manager should not be configured")
	}
}

func TestSearXNGSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q, want json", got)
		}
		json.NewEncoder(w).Encode(searxngResponse{Results: []searxngResult{
			{Title: "One", URL: "https://a.com", Content: "first"},
			{Title: "Two", URL: "https://b.com", Content: "second"},
		}})
	}))
	defer server.Close()

	provider := NewSearXNG(server.URL)
	results, err := provider.Search(context.Background(), "test", Options{Count: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("count not honored: got %d results", len(results))
	}
	if results[0].Snippet != "first" {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Subscription-Token"); got != "key-123" {
			t.Errorf("token header = %q", got)
		}
		w.Write([]byte(`{"web": {"results": [{"title": "Hit", "url": "https://c.com", "description": "d"}]}}`))
	}))
	defer server.Close()

	provider := NewBrave("key-123")
	provider.endpoint = server.URL

	results, err := provider.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Hit" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestBraveHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewBrave("key")
	provider.endpoint = server.URL

	if _, err := provider.Search(context.Background(), "test", Options{}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestToolExecuteAndFormat(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{name: "mock", results: []Result{
		{Title: "First", URL: "https://a.com", Snippet: "Snippet A"},
		{Title: "Second", URL: "https://b.com"},
	}})

	tool := NewTool(mgr, nil)
	args := map[string]string{"query": "dark matter"}

	raw := tool.Execute(context.Background(), args)
	results, ok := raw.([]Result)
	if !ok || len(results) != 2 {
		t.Fatalf("expected 2 results, got %#v", raw)
	}

	text := tool.FormatResult(args, raw)
	if !strings.Contains(text, "Search results for query: dark matter") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "Source 1: First") || !strings.Contains(text, "URL: https://a.com") {
		t.Errorf("missing source entry: %q", text)
	}
	if !strings.Contains(text, "Source 2: Second") {
		t.Errorf("missing second source: %q", text)
	}
}

func TestToolProviderFailure(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{name: "mock", err: errors.New("backend down")})

	tool := NewTool(mgr, nil)
	args := map[string]string{"query": "q"}

	raw := tool.Execute(context.Background(), args)
	if raw != nil {
		t.Fatalf("expected nil on provider failure, got %#v", raw)
	}
	if text := tool.FormatResult(args, raw); text != "No results found for query: q" {
		t.Errorf("unexpected failure text: %q", text)
	}
}

func TestToolEmptyResults(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{name: "mock"})

	tool := NewTool(mgr, nil)
	if raw := tool.Execute(context.Background(), map[string]string{"query": "q"}); raw != nil {
		t.Fatalf("expected nil for empty results, got %#v", raw)
	}
}
