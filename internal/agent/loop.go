// Package agent implements the research loop: a reasoning, action,
// observation cycle driven by an LLM over a registry of tools, with
// every completed query checkpointed to the session store.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/delv-sh/delv/internal/llm"
	"github.com/delv-sh/delv/internal/prompts"
	"github.com/delv-sh/delv/internal/session"
	"github.com/delv-sh/delv/internal/tools"
)

// ExhaustedMessage is returned when the iteration ceiling is hit
// before the model produces a final answer.
const ExhaustedMessage = "Maximum iterations reached without a final answer."

// Agent runs research tasks. It is not safe for concurrent use; one
// agent serves one operator session.
type Agent struct {
	client        llm.Client
	model         string
	registry      *tools.Registry
	store         *session.Store
	parser        *ActionParser
	logger        *slog.Logger
	maxIterations int

	systemPrompt string
	context      []llm.Message
	usedTools    map[string]bool
	task         string
}

// New creates an agent. maxIterations must be positive.
func New(client llm.Client, model string, registry *tools.Registry, store *session.Store, maxIterations int, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}

	fallbacks := make([]Fallback, 0, len(registry.Names())+1)
	for _, t := range registry.All() {
		arg, _ := t.Arg()
		fallbacks = append(fallbacks, Fallback{Tool: t.Name(), Field: arg})
	}
	fallbacks = append(fallbacks, Fallback{Tool: tools.FinalAnswerName, Field: tools.FinalAnswerArg})

	return &Agent{
		client:        client,
		model:         model,
		registry:      registry,
		store:         store,
		parser:        NewActionParser(fallbacks),
		logger:        logger.With("component", "agent"),
		maxIterations: maxIterations,
		systemPrompt:  prompts.ReactSystemPrompt(registry.Describe()),
		usedTools:     make(map[string]bool),
	}
}

// Run executes one research task to completion and checkpoints it.
// The returned error is reserved for storage faults; model and tool
// failures surface as returned text so the transcript survives them.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	a.task = task
	a.usedTools = make(map[string]bool)

	if a.store.Current() == nil {
		if _, err := a.store.Create(task); err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		a.context = nil
		a.appendUser(prompts.TaskMessage(task))
	} else {
		// Follow-up task in a live session: the earlier transcript
		// stays in context for cross-query memory.
		a.appendUser(prompts.FollowUpMessage(task))
	}

	a.logger.Info("task started", "task", task, "max_iterations", a.maxIterations)

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		a.logger.Debug("iteration", "n", iteration)

		resp, err := a.client.Chat(ctx, a.model, a.messages())
		if err != nil {
			a.logger.Error("model call failed", "iteration", iteration, "error", err)
			result := fmt.Sprintf("Error: %v", err)
			if cerr := a.checkpoint(&result); cerr != nil {
				return "", cerr
			}
			return result, nil
		}

		assistant := resp.Message.Content
		a.context = append(a.context, llm.Message{Role: "assistant", Content: assistant})

		action := a.parser.Parse(assistant)
		if action == nil {
			a.logger.Warn("no parseable action, asking for a retry", "iteration", iteration)
			a.appendUser(prompts.ParseRetry)
			continue
		}

		if action.Name == tools.FinalAnswerName {
			answer := action.Arguments[tools.FinalAnswerArg]
			if answer == "" {
				answer = tools.NoAnswerPlaceholder
			}
			if err := a.checkpoint(&answer); err != nil {
				return "", err
			}
			a.context = append(a.context, llm.Message{Role: "assistant", Content: prompts.CheckpointAck})
			a.logger.Info("final answer", "iterations", iteration, "used_tools", a.UsedTools())
			return answer, nil
		}

		a.observe(a.executeAction(ctx, action))
	}

	a.logger.Warn("iteration ceiling reached", "max_iterations", a.maxIterations)
	answer := ExhaustedMessage
	if err := a.checkpoint(&answer); err != nil {
		return "", err
	}
	return answer, nil
}

// executeAction dispatches a parsed action to its tool and returns the
// observation text.
func (a *Agent) executeAction(ctx context.Context, action *Action) string {
	tool, ok := a.registry.Get(action.Name)
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", action.Name)
		return fmt.Sprintf("Tool '%s' not found", action.Name)
	}

	args := make(map[string]string, len(action.Arguments)+1)
	for k, v := range action.Arguments {
		args[k] = v
	}
	args[tools.TaskArg] = a.task

	a.logger.Info("executing tool", "tool", action.Name, "args", action.Arguments)
	raw := tool.Execute(ctx, args)
	a.usedTools[action.Name] = true
	return tool.FormatResult(args, raw)
}

// LoadSession makes a stored session active and restores the loop
// state from its most recent query record.
func (a *Agent) LoadSession(id string) error {
	sess, err := a.store.Load(id)
	if err != nil {
		return err
	}

	a.context = nil
	a.usedTools = make(map[string]bool)
	a.task = sess.InitialQuery

	if last := sess.LastQuery(); last != nil {
		a.task = last.Query
		for _, turn := range last.Context {
			a.context = append(a.context, llm.Message{Role: turn.Role, Content: turn.Content})
		}
		for _, name := range last.UsedTools {
			a.usedTools[name] = true
		}
	}

	a.logger.Info("session restored", "session_id", id, "turns", len(a.context))
	return nil
}

// UsedTools returns the tools invoked for the current task, sorted.
func (a *Agent) UsedTools() []string {
	names := make([]string, 0, len(a.usedTools))
	for name := range a.usedTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Agent) messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(a.context)+1)
	msgs = append(msgs, llm.Message{Role: "system", Content: a.systemPrompt})
	return append(msgs, a.context...)
}

func (a *Agent) appendUser(content string) {
	a.context = append(a.context, llm.Message{Role: "user", Content: content})
}

func (a *Agent) observe(text string) {
	a.appendUser("Observation: " + text)
}

// checkpoint commits the current task's transcript to the session
// store. The session stays active so follow-up tasks keep the context.
func (a *Agent) checkpoint(finalAnswer *string) error {
	turns := make([]session.Turn, 0, len(a.context))
	for _, m := range a.context {
		turns = append(turns, session.Turn{Role: m.Role, Content: m.Content})
	}

	if _, err := a.store.AppendQuery(a.task, turns, a.UsedTools(), finalAnswer); err != nil {
		return fmt.Errorf("checkpoint query: %w", err)
	}
	return nil
}
