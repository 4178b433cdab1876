package tools

import (
	"context"
	"strings"
	"testing"
)

// staticTool is a minimal Tool for registry tests.
type staticTool struct {
	name string
	raw  any
}

func (s *staticTool) Name() string            { return s.name }
func (s *staticTool) Description() string     { return "a test tool" }
func (s *staticTool) Arg() (string, string)   { return "query", "The search query to execute" }
func (s *staticTool) Execute(context.Context, map[string]string) any { return s.raw }
func (s *staticTool) FormatResult(_ map[string]string, raw any) string {
	if raw == nil {
		return "No results found."
	}
	return raw.(string)
}

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "search_web"})

	if _, ok := r.Get("search_web"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := r.Get("search_bing"); ok {
		t.Fatal("unregistered tool should not be found")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "search_web"})
	r.Register(&staticTool{name: "ask_user"})
	r.Register(&staticTool{name: "read_paper"})

	names := r.Names()
	want := []string{"ask_user", "read_paper", "search_web"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "search_docs"})

	desc := r.Describe()
	if !strings.Contains(desc, "search_docs") {
		t.Error("Describe missing registered tool")
	}
	if !strings.Contains(desc, FinalAnswerName) {
		t.Error("Describe missing final_answer pseudo-tool")
	}
	if !strings.Contains(desc, `"query"`) {
		t.Error("Describe missing argument advertisement")
	}
}

func TestAskUserExecute(t *testing.T) {
	var out strings.Builder
	a := NewAskUser(strings.NewReader("blue, mostly\n"), &out, nil)

	raw := a.Execute(context.Background(), map[string]string{"query": "Which color?"})
	reply, ok := raw.(string)
	if !ok {
		t.Fatalf("Execute returned %T, want string", raw)
	}
	if reply != "blue, mostly" {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(out.String(), "Which color?") {
		t.Errorf("prompt not written to out: %q", out.String())
	}

	if got := a.FormatResult(nil, raw); got != "blue, mostly" {
		t.Errorf("FormatResult = %q, want identity", got)
	}
}

func TestAskUserNoInput(t *testing.T) {
	var out strings.Builder
	a := NewAskUser(strings.NewReader(""), &out, nil)

	raw := a.Execute(context.Background(), map[string]string{"query": "anyone there?"})
	if raw != nil {
		t.Fatalf("Execute with closed input = %v, want nil", raw)
	}
	if got := a.FormatResult(nil, raw); got == "" {
		t.Error("FormatResult must never return empty text")
	}
}
