package prompts

import (
	"fmt"
	"strings"
)

// SummarizerSystem is the system prompt for paper summarization calls.
const SummarizerSystem = "You are a research assistant that creates clear, accurate summaries of academic papers. Focus on the key aspects and maintain academic precision."

// SummarizeChunk returns the prompt for summarizing one chunk of a
// paper. part and total describe the chunk's position; total of 1
// means the paper fit in a single chunk. task, when non-empty, focuses
// the summary on the originating research question.
func SummarizeChunk(text, task string, part, total int) string {
	var partOf, partLabel string
	if total > 1 {
		partOf = "part of the "
		partLabel = fmt.Sprintf(" (part %d/%d)", part, total)
	}

	var focus string
	if task != "" {
		focus = fmt.Sprintf("\n\nPay particular attention to anything relevant to this research question: %s", task)
	}

	return fmt.Sprintf(`Please provide a comprehensive summary of this %sresearch paper. Focus on:
1. Main objectives and research questions
2. Key methodologies used
3. Important findings and results
4. Significant conclusions
5. Potential applications or implications%s

Here's the paper text%s:
%s

Please structure the summary clearly and highlight the most important aspects of the research.`, partOf, focus, partLabel, text)
}

// CombineSummaries returns the prompt for merging per-chunk summaries
// into one coherent summary.
func CombineSummaries(summaries []string) string {
	var parts strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&parts, "Part %d:\n%s\n", i+1, s)
	}

	return fmt.Sprintf(`Combine these %d summaries of different parts of the same paper into a single coherent summary:

%s
Create a unified summary that captures the key points from all parts.`, len(summaries), parts.String())
}
