// Package tools defines the research tools available to the agent.
//
// Every tool presents the same two-step contract: Execute performs the
// lookup and returns a raw result (nil on any resolvable failure —
// failures are logged inside the tool and never propagate), and
// FormatResult renders the raw result into plain text suitable for the
// conversation transcript. FormatResult is total and never returns an
// empty string; "no results" sentinel text is the floor.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FinalAnswerName is the distinguished action that terminates a
// research task. It is known to the control loop directly and is not a
// registry entry: invoking it is a request to checkpoint, not to fetch.
const FinalAnswerName = "final_answer"

// FinalAnswerArg is the argument carrying the answer text.
const FinalAnswerArg = "answer"

// NoAnswerPlaceholder is used when a final_answer action arrives
// without an answer argument.
const NoAnswerPlaceholder = "No answer provided"

// TaskArg is a reserved argument key. The control loop sets it to the
// originating task string before executing a tool, so tools that focus
// their analysis (the paper reader) can see what the user asked.
const TaskArg = "task"

// Tool is a named capability the research loop can invoke.
type Tool interface {
	// Name returns the tool identifier used in actions.
	Name() string

	// Description is the human-readable capability summary advertised
	// to the model.
	Description() string

	// Arg returns the primary argument name and its description.
	// It drives both prompt advertisement and degraded-input recovery.
	Arg() (name, desc string)

	// Execute performs the tool's action. Any resolvable failure
	// (network error, parse error, empty result) returns nil; the
	// failure is logged inside the tool and never propagates.
	Execute(ctx context.Context, args map[string]string) any

	// FormatResult renders raw (or the nil failure case) into plain
	// text for the transcript. Always returns non-empty text.
	FormatResult(args map[string]string, raw any) string
}

// Registry holds the available tools, keyed by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. A tool registered under an existing name
// replaces the previous one.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered tools in name order.
func (r *Registry) All() []Tool {
	names := r.Names()
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Describe renders the capability list advertised to the model,
// including the final_answer pseudo-tool.
func (r *Registry) Describe() string {
	var sb strings.Builder
	for _, t := range r.All() {
		arg, desc := t.Arg()
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name(), t.Description())
		fmt.Fprintf(&sb, "  Takes inputs: {%q: %q}\n", arg, desc)
		sb.WriteString("  Returns an output of type: string\n")
	}
	fmt.Fprintf(&sb, "- %s: Provide the final answer to the query\n", FinalAnswerName)
	fmt.Fprintf(&sb, "  Takes inputs: {%q: %q}\n", FinalAnswerArg, "The final answer to the query")
	sb.WriteString("  Returns an output of type: string")
	return sb.String()
}
