// Package arxiv searches arXiv.org through its public Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/delv-sh/delv/internal/httpkit"
)

const (
	defaultEndpoint   = "http://export.arxiv.org/api/query"
	defaultMaxResults = 5
)

// Paper is a single arXiv search result.
type Paper struct {
	Title     string
	Authors   []string
	Summary   string
	PDFURL    string
	Published string // YYYY-MM-DD
}

// Tool searches arXiv and implements the agent tool contract.
type Tool struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTool creates the arXiv search tool.
func NewTool(logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{
		endpoint:   defaultEndpoint,
		maxResults: defaultMaxResults,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(20 * time.Second),
		),
		logger: logger.With("tool", "search_arxiv"),
	}
}

func (t *Tool) Name() string { return "search_arxiv" }

func (t *Tool) Description() string {
	return "Search for research papers on arXiv.org"
}

func (t *Tool) Arg() (string, string) {
	return "query", "The arXiv search query"
}

// atom feed structures for the arXiv API response.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// Execute queries the arXiv API. Returns []Paper, or nil on any
// failure or when nothing matched.
func (t *Tool) Execute(ctx context.Context, args map[string]string) any {
	query := args["query"]
	if query == "" {
		t.logger.Warn("missing query argument")
		return nil
	}

	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(t.maxResults)},
		"sortBy":       {"relevance"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		t.logger.Error("build request failed", "error", err)
		return nil
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("arxiv request failed", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		t.logger.Error("arxiv returned error", "status", resp.StatusCode, "body", body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Error("read arxiv response failed", "error", err)
		return nil
	}

	papers, err := parseFeed(body)
	if err != nil {
		t.logger.Error("parse arxiv response failed", "error", err)
		return nil
	}
	if len(papers) == 0 {
		t.logger.Warn("no arxiv results", "query", query)
		return nil
	}

	t.logger.Info("arxiv search complete", "query", query, "results", len(papers))
	return papers
}

// FormatResult renders papers as structured text the model can cite.
func (t *Tool) FormatResult(args map[string]string, raw any) string {
	query := args["query"]

	papers, ok := raw.([]Paper)
	if !ok || len(papers) == 0 {
		return fmt.Sprintf("No Arxiv results found for query: %s.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Arxiv search results for query: '%s'\n\n", query)
	for i, p := range papers {
		fmt.Fprintf(&sb, "Paper %d:\n", i+1)
		fmt.Fprintf(&sb, "  Title: %s\n", orNA(p.Title))
		fmt.Fprintf(&sb, "  Authors: %s\n", orNA(strings.Join(p.Authors, ", ")))
		fmt.Fprintf(&sb, "  Published: %s\n", orNA(p.Published))
		fmt.Fprintf(&sb, "  Summary: %s\n", orNA(snippet(p.Summary, 500)))
		fmt.Fprintf(&sb, "  PDF URL: %s\n\n", orNA(p.PDFURL))
	}
	return strings.TrimSpace(sb.String())
}

func parseFeed(body []byte) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal atom feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p := Paper{
			Title:   strings.TrimSpace(e.Title),
			Summary: strings.TrimSpace(e.Summary),
		}
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		for _, l := range e.Links {
			if l.Title == "pdf" && l.Href != "" {
				p.PDFURL = l.Href
				break
			}
		}
		if p.PDFURL == "" {
			for _, l := range e.Links {
				if strings.HasSuffix(l.Href, ".pdf") {
					p.PDFURL = l.Href
					break
				}
			}
		}
		if e.Published != "" {
			p.Published, _, _ = strings.Cut(e.Published, "T")
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func snippet(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
