package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	searchTopK     = 15
	maxPassages    = 5
	minContentLen  = 50
	maxPassageRune = 1000
)

// Embedder turns text into a vector. Satisfied by embeddings.Client.
type Embedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// SearchTool searches the local document index. It implements the
// agent tool contract.
type SearchTool struct {
	store    *Store
	embedder Embedder
	logger   *slog.Logger
}

// NewSearchTool creates the knowledge-base search tool.
func NewSearchTool(store *Store, embedder Embedder, logger *slog.Logger) *SearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{
		store:    store,
		embedder: embedder,
		logger:   logger.With("tool", "search_docs"),
	}
}

func (t *SearchTool) Name() string { return "search_docs" }

func (t *SearchTool) Description() string {
	return "Search through research papers and documents in the knowledge base"
}

func (t *SearchTool) Arg() (string, string) {
	return "query", "The search query for the knowledge base"
}

// Execute embeds the query and ranks indexed chunks against it.
// Returns []Result, or nil when embedding or the index lookup fails.
func (t *SearchTool) Execute(ctx context.Context, args map[string]string) any {
	query := args["query"]
	if query == "" {
		t.logger.Warn("missing query argument")
		return nil
	}

	// Widen the query toward research-paper phrasing before
	// embedding; raw user questions under-match academic prose.
	expanded := query + "\nInformation from research papers on this topic\nScientific evidence and studies about this"

	vec, err := t.embedder.Generate(ctx, expanded)
	if err != nil {
		t.logger.Error("embedding failed", "error", err)
		return nil
	}

	results, err := t.store.Search(vec, searchTopK)
	if err != nil {
		t.logger.Error("index search failed", "error", err)
		return nil
	}
	if len(results) == 0 {
		t.logger.Warn("no indexed chunks matched", "query", query)
		return nil
	}

	t.logger.Info("index search complete", "query", query, "results", len(results))
	return results
}

// FormatResult renders ranked chunks as numbered source passages.
// Short and duplicate passages are dropped.
func (t *SearchTool) FormatResult(args map[string]string, raw any) string {
	query := args["query"]

	results, ok := raw.([]Result)
	if !ok || len(results) == 0 {
		return fmt.Sprintf("No results found for query: %s", query)
	}

	seen := make(map[string]bool)
	var passages []Result
	for _, r := range results {
		content := strings.TrimSpace(r.Content)
		if len(content) < minContentLen || seen[content] {
			continue
		}
		seen[content] = true
		r.Content = content
		passages = append(passages, r)
		if len(passages) >= maxPassages {
			break
		}
	}

	if len(passages) == 0 {
		return "No relevant information found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for query: %s\n\n", query)
	for i, p := range passages {
		title := p.Source
		if p.Section != "" {
			title += " > " + p.Section
		}
		fmt.Fprintf(&sb, "Source %d: %s\n", i+1, title)
		fmt.Fprintf(&sb, "Content: %s\n\n", truncate(p.Content, maxPassageRune))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count >= n {
			return s[:i]
		}
		count++
	}
	return s
}
