package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Neutrino Oscillations Revisited</title>
    <summary>  We present updated mixing angles.  </summary>
    <published>2024-01-15T18:30:02Z</published>
    <author><name>A. Researcher</name></author>
    <author><name>B. Colleague</name></author>
    <link href="http://arxiv.org/abs/2401.01234" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.01234" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <title>A Second Paper</title>
    <summary>Another abstract.</summary>
    <published>2023-11-02T09:00:00Z</published>
    <author><name>C. Author</name></author>
    <link href="http://arxiv.org/abs/2311.00001.pdf" rel="alternate"/>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	papers, err := parseFeed([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}

	first := papers[0]
	if first.Title != "Neutrino Oscillations Revisited" {
		t.Errorf("title = %q", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "A. Researcher" {
		t.Errorf("authors = %v", first.Authors)
	}
	if first.Summary != "We present updated mixing angles." {
		t.Errorf("summary not trimmed: %q", first.Summary)
	}
	if first.PDFURL != "http://arxiv.org/pdf/2401.01234" {
		t.Errorf("pdf url = %q", first.PDFURL)
	}
	if first.Published != "2024-01-15" {
		t.Errorf("published = %q", first.Published)
	}

	// Second entry has no link titled pdf; the .pdf suffix fallback applies.
	if papers[1].PDFURL != "http://arxiv.org/abs/2311.00001.pdf" {
		t.Errorf("fallback pdf url = %q", papers[1].PDFURL)
	}
}

func TestParseFeedInvalid(t *testing.T) {
	if _, err := parseFeed([]byte("not xml at all <")); err == nil {
		t.Fatal("expected error for invalid XML")
	}
}

func TestExecuteAndFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("search_query"); got != "all:neutrinos" {
			t.Errorf("search_query = %q", got)
		}
		if got := q.Get("sortBy"); got != "relevance" {
			t.Errorf("sortBy = %q", got)
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	tool := NewTool(nil)
	tool.endpoint = server.URL
	args := map[string]string{"query": "neutrinos"}

	raw := tool.Execute(context.Background(), args)
	papers, ok := raw.([]Paper)
	if !ok || len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %#v", raw)
	}

	text := tool.FormatResult(args, raw)
	if !strings.Contains(text, "Arxiv search results for query: 'neutrinos'") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "Paper 1:") || !strings.Contains(text, "Title: Neutrino Oscillations Revisited") {
		t.Errorf("missing paper entry: %q", text)
	}
	if !strings.Contains(text, "PDF URL: http://arxiv.org/pdf/2401.01234") {
		t.Errorf("missing pdf url: %q", text)
	}
}

func TestExecuteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tool := NewTool(nil)
	tool.endpoint = server.URL

	if raw := tool.Execute(context.Background(), map[string]string{"query": "q"}); raw != nil {
		t.Fatalf("expected nil on server error, got %#v", raw)
	}
}

func TestFormatResultEmpty(t *testing.T) {
	tool := NewTool(nil)
	text := tool.FormatResult(map[string]string{"query": "q"}, nil)
	if text != "No Arxiv results found for query: q." {
		t.Errorf("got %q", text)
	}
}
