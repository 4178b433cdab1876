// Package export renders stored research sessions as standalone HTML
// documents.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/delv-sh/delv/internal/session"
)

// HTML renders a session transcript as a self-contained HTML page.
// Answers are markdown and rendered as such; everything else is
// escaped verbatim.
func HTML(sess *session.Session) (string, error) {
	var body strings.Builder

	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(sess.InitialQuery))
	fmt.Fprintf(&body, "<p class=\"meta\">Session %s &middot; created %s &middot; %d queries</p>\n",
		html.EscapeString(sess.SessionID),
		sess.CreatedAt.Format("2006-01-02 15:04"),
		sess.Metadata.TotalQueries,
	)

	for _, q := range sess.Queries {
		// The seed record carries no transcript; skip it.
		if len(q.Context) == 0 && q.FinalAnswer == nil {
			continue
		}

		fmt.Fprintf(&body, "<section>\n<h2>%s</h2>\n", html.EscapeString(q.Query))
		fmt.Fprintf(&body, "<p class=\"meta\">%s</p>\n", q.Timestamp.Format("2006-01-02 15:04"))

		if len(q.UsedTools) > 0 {
			fmt.Fprintf(&body, "<p class=\"meta\">Tools used: %s</p>\n",
				html.EscapeString(strings.Join(q.UsedTools, ", ")))
		}

		if q.FinalAnswer != nil {
			rendered, err := markdownToHTML(*q.FinalAnswer)
			if err != nil {
				return "", fmt.Errorf("render answer for query %s: %w", q.QueryID, err)
			}
			fmt.Fprintf(&body, "<div class=\"answer\">\n%s</div>\n", rendered)
		} else {
			body.WriteString("<p class=\"meta\">No final answer recorded.</p>\n")
		}
		body.WriteString("</section>\n")
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title>
<style>
body { font-family: sans-serif; font-size: 14px; line-height: 1.5; max-width: 48em; margin: 2em auto; }
.meta { color: #666; font-size: 12px; }
.answer { border-left: 3px solid #ccc; padding-left: 1em; }
</style>
</head>
<body>
%s</body></html>`, html.EscapeString(sess.InitialQuery), body.String())

	return page, nil
}

func markdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
