package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const toolResultCount = 5

// Tool exposes the search manager to the research loop under the
// agent tool contract.
type Tool struct {
	manager *Manager
	logger  *slog.Logger
}

// NewTool creates the web search tool.
func NewTool(manager *Manager, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{
		manager: manager,
		logger:  logger.With("tool", "search_web"),
	}
}

func (t *Tool) Name() string { return "search_web" }

func (t *Tool) Description() string {
	return "Search the web for up-to-date information on any topic"
}

func (t *Tool) Arg() (string, string) {
	return "query", "The web search query"
}

// Execute runs the query against the configured provider. Returns
// []Result, or nil when the provider fails or finds nothing.
func (t *Tool) Execute(ctx context.Context, args map[string]string) any {
	query := args["query"]
	if query == "" {
		t.logger.Warn("missing query argument")
		return nil
	}

	results, err := t.manager.Search(ctx, query, Options{Count: toolResultCount})
	if err != nil {
		t.logger.Error("web search failed", "query", query, "error", err)
		return nil
	}
	if len(results) == 0 {
		t.logger.Warn("web search returned no results", "query", query)
		return nil
	}

	t.logger.Info("web search complete", "query", query, "results", len(results))
	return results
}

// FormatResult renders search results as numbered sources.
func (t *Tool) FormatResult(args map[string]string, raw any) string {
	query := args["query"]

	results, ok := raw.([]Result)
	if !ok || len(results) == 0 {
		return fmt.Sprintf("No results found for query: %s", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for query: %s\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "Source %d: %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "URL: %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "Content: %s\n", r.Snippet)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
