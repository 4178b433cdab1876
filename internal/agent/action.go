package agent

import (
	"regexp"
	"strings"
)

// Action is a parsed tool invocation from a model response.
type Action struct {
	Name      string
	Arguments map[string]string
}

var (
	// actionRe locates the first Action marker and its brace block.
	// Non-greedy, so the block ends at the first closing brace; for a
	// well-formed action that brace closes the arguments object, which
	// keeps every field we care about inside the match.
	actionRe = regexp.MustCompile(`(?s)Action:\s*\{(.*?)\}`)

	nameRe = regexp.MustCompile(`"name":\s*"([^"]+)"`)
	argsRe = regexp.MustCompile(`(?s)"arguments":\s*\{(.*?)\}`)
	pairRe = regexp.MustCompile(`"([^"]+)":\s*"([^"]+)"`)
)

// Fallback maps a tool name to its primary argument field, for
// degraded recovery when the structured parse finds no name.
type Fallback struct {
	Tool  string
	Field string
}

// ActionParser extracts actions from free-form model responses.
// Models emit near-JSON action blocks; the parser is regex-based
// rather than a JSON decoder because the blocks are frequently
// malformed (trailing prose, unescaped quotes, missing braces).
type ActionParser struct {
	fallbacks []Fallback
	fieldRes  []*regexp.Regexp
}

// NewActionParser creates a parser. fallbacks drive degraded recovery
// and are tried in order.
func NewActionParser(fallbacks []Fallback) *ActionParser {
	p := &ActionParser{fallbacks: fallbacks}
	for _, f := range fallbacks {
		p.fieldRes = append(p.fieldRes,
			regexp.MustCompile(`"`+regexp.QuoteMeta(f.Field)+`":\s*"([^"]+)"`))
	}
	return p
}

// Parse extracts the first action from text. Returns nil when no
// action is recoverable; it never fails harder than that.
func (p *ActionParser) Parse(text string) *Action {
	block := actionRe.FindString(text)
	if block == "" {
		return nil
	}

	if m := nameRe.FindStringSubmatch(block); m != nil {
		action := &Action{Name: m[1], Arguments: map[string]string{}}
		if am := argsRe.FindStringSubmatch(block); am != nil {
			for _, pair := range pairRe.FindAllStringSubmatch(am[1], -1) {
				action.Arguments[pair[1]] = pair[2]
			}
		}
		return action
	}

	// Degraded recovery: no name field, but a known tool name inside
	// the block plus its expected argument is enough to act on.
	for i, f := range p.fallbacks {
		if !strings.Contains(block, f.Tool) {
			continue
		}
		if m := p.fieldRes[i].FindStringSubmatch(block); m != nil {
			return &Action{
				Name:      f.Tool,
				Arguments: map[string]string{f.Field: m[1]},
			}
		}
	}

	return nil
}
