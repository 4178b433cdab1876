package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/delv-sh/delv/internal/llm"
	"github.com/delv-sh/delv/internal/prompts"
	"github.com/delv-sh/delv/internal/tools"
)

// summarizeChunkSize is the maximum characters of paper text per
// summarization call.
const summarizeChunkSize = 10000

// Reader is the paper reader tool: it downloads a paper's page,
// extracts the text, and produces an LLM summary focused on the
// originating research task.
type Reader struct {
	fetcher *Fetcher
	client  llm.Client
	model   string
	logger  *slog.Logger
}

// NewReader creates the paper reader tool.
func NewReader(fetcher *Fetcher, client llm.Client, model string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		fetcher: fetcher,
		client:  client,
		model:   model,
		logger:  logger.With("tool", "read_paper"),
	}
}

func (r *Reader) Name() string { return "read_paper" }

func (r *Reader) Description() string {
	return "Download and read a paper from its URL, then summarize its content"
}

func (r *Reader) Arg() (string, string) {
	return "url", "The URL of the paper to read"
}

// Execute downloads, extracts, and summarizes the paper at args["url"].
// Returns the summary string, or nil when any stage fails.
func (r *Reader) Execute(ctx context.Context, args map[string]string) any {
	url := args["url"]
	if url == "" {
		r.logger.Warn("missing url argument")
		return nil
	}

	url = normalizeArxivURL(url)
	r.logger.Info("reading paper", "url", url)

	result, err := r.fetcher.Fetch(ctx, url, DefaultMaxChars)
	if err != nil {
		r.logger.Error("paper fetch failed", "url", url, "error", err)
		return nil
	}
	if strings.TrimSpace(result.Content) == "" {
		r.logger.Warn("paper page had no extractable text", "url", url)
		return nil
	}

	summary, err := r.summarize(ctx, result.Content, args[tools.TaskArg])
	if err != nil {
		r.logger.Error("paper summarization failed", "url", url, "error", err)
		return nil
	}
	return summary
}

// FormatResult renders the summary for the transcript.
func (r *Reader) FormatResult(args map[string]string, raw any) string {
	summary, ok := raw.(string)
	if !ok || summary == "" {
		return fmt.Sprintf("Failed to process paper from URL: %s", args["url"])
	}
	return "Paper Analysis Results:\n\n" + summary
}

// summarize runs chunked summarization: one pass per chunk, then a
// combining pass when the paper spanned multiple chunks.
func (r *Reader) summarize(ctx context.Context, text, task string) (string, error) {
	chunks := splitChunks(text, summarizeChunkSize)

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := prompts.SummarizeChunk(chunk, task, i+1, len(chunks))
		resp, err := r.client.Chat(ctx, r.model, []llm.Message{
			{Role: "system", Content: prompts.SummarizerSystem},
			{Role: "user", Content: prompt},
		})
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, resp.Message.Content)
	}

	if len(summaries) == 1 {
		return summaries[0], nil
	}

	resp, err := r.client.Chat(ctx, r.model, []llm.Message{
		{Role: "system", Content: prompts.SummarizerSystem},
		{Role: "user", Content: prompts.CombineSummaries(summaries)},
	})
	if err != nil {
		return "", fmt.Errorf("combine summaries: %w", err)
	}
	return resp.Message.Content, nil
}

// normalizeArxivURL rewrites arXiv PDF links to their abstract page,
// which serves HTML we can extract text from.
func normalizeArxivURL(url string) string {
	if !strings.Contains(url, "arxiv.org") {
		return url
	}
	if strings.Contains(url, "/pdf/") {
		url = strings.Replace(url, "/pdf/", "/abs/", 1)
		url = strings.TrimSuffix(url, ".pdf")
	}
	return url
}

func splitChunks(s string, size int) []string {
	if len(s) <= size {
		return []string{s}
	}
	var chunks []string
	for len(s) > size {
		// Cut at a rune boundary so no chunk ends mid-character.
		head := truncateUTF8(s, size)
		chunks = append(chunks, head)
		s = s[len(head):]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
