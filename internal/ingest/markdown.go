// Package ingest imports markdown documents into the retrieval index.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/delv-sh/delv/internal/index"
)

// MarkdownIngester chunks markdown documents by heading and indexes
// each chunk with its embedding.
type MarkdownIngester struct {
	store    *index.Store
	embedder index.Embedder
	logger   *slog.Logger
}

// NewMarkdownIngester creates a markdown document ingester.
func NewMarkdownIngester(store *index.Store, embedder index.Embedder, logger *slog.Logger) *MarkdownIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkdownIngester{
		store:    store,
		embedder: embedder,
		logger:   logger.With("component", "ingest"),
	}
}

// chunk is a semantic unit of the document, keyed by its heading path.
type chunk struct {
	Section string
	Content string
}

// IngestFile reads a markdown file and indexes its chunks under the
// file's base name. Re-ingesting the same file replaces its chunks.
func (m *MarkdownIngester) IngestFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return m.ingest(ctx, filepath.Base(path), parseMarkdown(file))
}

// IngestString indexes markdown content under the given source name.
func (m *MarkdownIngester) IngestString(ctx context.Context, source, content string) (int, error) {
	return m.ingest(ctx, source, parseMarkdown(strings.NewReader(content)))
}

func (m *MarkdownIngester) ingest(ctx context.Context, source string, chunks []chunk) (int, error) {
	// Clear prior chunks from this source so re-imports stay clean.
	if _, err := m.store.DeleteSource(source); err != nil {
		return 0, fmt.Errorf("clear source %s: %w", source, err)
	}

	count := 0
	for _, c := range chunks {
		embText := c.Section + ": " + c.Content
		emb, err := m.embedder.Generate(ctx, embText)
		if err != nil {
			m.logger.Warn("skipping chunk, embedding failed",
				"source", source, "section", c.Section, "error", err)
			continue
		}

		if _, err := m.store.Add(index.Chunk{
			Source:  source,
			Section: c.Section,
			Content: c.Content,
		}, emb); err != nil {
			return count, fmt.Errorf("index chunk %s: %w", c.Section, err)
		}
		count++
	}

	m.logger.Info("document ingested", "source", source, "chunks", count)
	return count, nil
}

var (
	h1Pattern        = regexp.MustCompile(`^#\s+(.+)$`)
	h2Pattern        = regexp.MustCompile(`^##\s+(.+)$`)
	h3Pattern        = regexp.MustCompile(`^###\s+(.+)$`)
	codeBlockPattern = regexp.MustCompile("^```")
	slugPattern      = regexp.MustCompile(`[^a-z0-9]+`)
)

// parseMarkdown splits markdown into one chunk per heading, keyed by
// the slugified heading path. Code block contents never start chunks.
func parseMarkdown(r io.Reader) []chunk {
	var chunks []chunk
	scanner := bufio.NewScanner(r)

	var currentH1, currentH2, section string
	var content strings.Builder

	flush := func() {
		text := strings.TrimSpace(content.String())
		if text != "" && section != "" {
			chunks = append(chunks, chunk{Section: section, Content: text})
		}
		content.Reset()
	}

	inCodeBlock := false

	for scanner.Scan() {
		line := scanner.Text()

		if codeBlockPattern.MatchString(line) {
			inCodeBlock = !inCodeBlock
			content.WriteString(line + "\n")
			continue
		}
		if inCodeBlock {
			content.WriteString(line + "\n")
			continue
		}

		if m := h1Pattern.FindStringSubmatch(line); m != nil {
			flush()
			currentH1 = m[1]
			currentH2 = ""
			section = slugify(currentH1)
			continue
		}
		if m := h2Pattern.FindStringSubmatch(line); m != nil {
			flush()
			currentH2 = m[1]
			section = joinSlugs(currentH1, currentH2)
			continue
		}
		if m := h3Pattern.FindStringSubmatch(line); m != nil {
			flush()
			section = joinSlugs(currentH1, currentH2, m[1])
			continue
		}

		if line != "" || content.Len() > 0 {
			content.WriteString(line + "\n")
		}
	}

	flush()
	return chunks
}

func joinSlugs(parts ...string) string {
	var slugs []string
	for _, p := range parts {
		if p != "" {
			slugs = append(slugs, slugify(p))
		}
	}
	return strings.Join(slugs, "/")
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
