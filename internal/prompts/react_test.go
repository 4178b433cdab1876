package prompts

import (
	"strings"
	"testing"
)

func TestReactSystemPromptInjectsTools(t *testing.T) {
	desc := "- search_web: Search the web"
	prompt := ReactSystemPrompt(desc)

	if strings.Contains(prompt, "{tools}") {
		t.Error("placeholder not replaced")
	}
	if !strings.Contains(prompt, desc) {
		t.Error("tools description not injected")
	}
	// The example actions' JSON braces must survive interpolation.
	if !strings.Contains(prompt, `"name": "final_answer"`) {
		t.Error("example actions damaged")
	}
}

func TestTaskMessage(t *testing.T) {
	msg := TaskMessage("What is dark matter?")
	if !strings.HasPrefix(msg, "What is dark matter?") {
		t.Errorf("task not leading: %q", msg[:40])
	}
	if !strings.Contains(msg, "IMPORTANT INSTRUCTIONS") {
		t.Error("missing approach instructions")
	}
}

func TestSummarizeChunkSinglePart(t *testing.T) {
	prompt := SummarizeChunk("paper text here", "", 1, 1)
	if strings.Contains(prompt, "part of the") {
		t.Error("single chunk should not mention parts")
	}
	if strings.Contains(prompt, "part 1/1") {
		t.Error("single chunk should not carry a part label")
	}
	if !strings.Contains(prompt, "paper text here") {
		t.Error("chunk text missing")
	}
}

func TestSummarizeChunkMultiPart(t *testing.T) {
	prompt := SummarizeChunk("chunk", "neutrino masses", 2, 3)
	if !strings.Contains(prompt, "part of the research paper") {
		t.Error("multi-chunk phrasing missing")
	}
	if !strings.Contains(prompt, "(part 2/3)") {
		t.Error("part label missing")
	}
	if !strings.Contains(prompt, "neutrino masses") {
		t.Error("task focus missing")
	}
}

func TestCombineSummaries(t *testing.T) {
	prompt := CombineSummaries([]string{"first", "second"})
	if !strings.Contains(prompt, "these 2 summaries") {
		t.Errorf("count missing: %q", prompt)
	}
	if !strings.Contains(prompt, "Part 1:\nfirst") || !strings.Contains(prompt, "Part 2:\nsecond") {
		t.Error("parts missing")
	}
}
