package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// AskUser asks the operator a clarifying question and blocks until a
// line of input arrives. There is no timeout: research questions can
// wait for a human as long as they need to.
type AskUser struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

// NewAskUser creates the clarification tool reading from in and
// prompting on out.
func NewAskUser(in io.Reader, out io.Writer, logger *slog.Logger) *AskUser {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUser{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger.With("tool", "ask_user"),
	}
}

// Name implements Tool.
func (a *AskUser) Name() string { return "ask_user" }

// Description implements Tool.
func (a *AskUser) Description() string {
	return "Ask the user for feedback or clarification"
}

// Arg implements Tool.
func (a *AskUser) Arg() (string, string) {
	return "query", "The question to ask the user"
}

// Execute prompts the operator and returns their input verbatim.
func (a *AskUser) Execute(_ context.Context, args map[string]string) any {
	question := args["query"]
	fmt.Fprintf(a.out, "\n[ASK USER] %s\n> ", question)

	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		a.logger.Warn("operator input unavailable", "error", err)
		return nil
	}
	return strings.TrimSpace(line)
}

// FormatResult is the identity function over the operator's reply,
// floored to a sentinel when no reply was available.
func (a *AskUser) FormatResult(_ map[string]string, raw any) string {
	reply, ok := raw.(string)
	if !ok || reply == "" {
		return "The user did not provide a response."
	}
	return reply
}
