// Delv is a research assistant that answers questions by iteratively
// searching the web, arXiv, and a local document index, reading papers,
// and reasoning over what it finds. Sessions are durable JSON documents
// that can be resumed and exported.
//
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	delv                     Start an interactive research session
//	delv ask <question>      Answer a single question and exit
//	delv sessions            List stored research sessions
//	delv resume <id>         Resume a stored session interactively
//	delv export <id> [file]  Export a session as an HTML report
//	delv ingest <file.md>    Import a markdown document into the index
//	delv init [dir]          Initialize a working directory with defaults
//	delv version             Print version and build information
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/delv-sh/delv/internal/agent"
	"github.com/delv-sh/delv/internal/arxiv"
	"github.com/delv-sh/delv/internal/buildinfo"
	"github.com/delv-sh/delv/internal/config"
	"github.com/delv-sh/delv/internal/embeddings"
	"github.com/delv-sh/delv/internal/export"
	"github.com/delv-sh/delv/internal/fetch"
	"github.com/delv-sh/delv/internal/index"
	"github.com/delv-sh/delv/internal/ingest"
	"github.com/delv-sh/delv/internal/llm"
	"github.com/delv-sh/delv/internal/search"
	"github.com/delv-sh/delv/internal/session"
	"github.com/delv-sh/delv/internal/tools"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the command surface can be driven from tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the delv command. All OS-level
// dependencies are injected as parameters:
//
//   - ctx controls the lifetime of the process. Cancelling it
//     interrupts the research loop mid-task.
//   - stdin feeds interactive sessions and the ask_user tool.
//   - stdout and stderr receive all program output. Structured logs go
//     to stderr so answers on stdout stay pipeable.
//   - args is os.Args[1:]. We parse these manually rather than using
//     the flag package to avoid global state that interferes with
//     parallel tests.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "", "chat":
		return runInteractive(ctx, stdin, stdout, stderr, configPath, "")
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: delv ask <question>")
		}
		return runAsk(ctx, stdin, stdout, stderr, configPath, strings.Join(cmdArgs, " "))
	case "sessions":
		return runSessions(stdout, stderr, configPath, outputFmt)
	case "resume":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: delv resume <session-id>")
		}
		return runInteractive(ctx, stdin, stdout, stderr, configPath, cmdArgs[0])
	case "export":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: delv export <session-id> [output.html]")
		}
		out := ""
		if len(cmdArgs) > 1 {
			out = cmdArgs[1]
		}
		return runExport(stdout, stderr, configPath, cmdArgs[0], out)
	case "ingest":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: delv ingest <file.md>")
		}
		return runIngest(ctx, stdout, stderr, configPath, cmdArgs[0])
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Delv - Research Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: delv [flags] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  (none)            Start an interactive research session")
	fmt.Fprintln(w, "  ask <question>    Answer a single question and exit")
	fmt.Fprintln(w, "  sessions          List stored research sessions")
	fmt.Fprintln(w, "  resume <id>       Resume a stored session interactively")
	fmt.Fprintln(w, "  export <id> [f]   Export a session as an HTML report")
	fmt.Fprintln(w, "  ingest <file.md>  Import a markdown document into the index")
	fmt.Fprintln(w, "  init [dir]        Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./delv.yaml, ~/.config/delv/config.yaml, /etc/delv/config.yaml")
	return nil
}

// runAsk answers a single question and exits. The session is still
// persisted, so a follow-up can pick it up later with resume.
func runAsk(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath, question string) error {
	app, err := buildApp(stdin, stdout, stderr, configPath)
	if err != nil {
		return err
	}
	defer app.close()

	answer, err := app.agent.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, answer)
	if sess := app.sessions.Current(); sess != nil {
		fmt.Fprintf(stderr, "\n[session %s]\n", sess.SessionID)
	}
	return nil
}

// runInteractive drives a multi-query research session from stdin.
// With a non-empty sessionID it resumes that stored session first so
// follow-up questions see the earlier conversation.
func runInteractive(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath, sessionID string) error {
	app, err := buildApp(stdin, stdout, stderr, configPath)
	if err != nil {
		return err
	}
	defer app.close()

	if sessionID != "" {
		if err := app.agent.LoadSession(sessionID); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		fmt.Fprintf(stdout, "Resumed session %s\n", sessionID)
	} else {
		fmt.Fprintln(stdout, "delv interactive session (exit or ctrl-d to quit)")
	}

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(stdout, "\ndelv> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := app.agent.Run(ctx, question)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		fmt.Fprintf(stdout, "\n%s\n", answer)

		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if sess := app.sessions.Current(); sess != nil {
		fmt.Fprintf(stdout, "\nSession saved as %s\n", sess.SessionID)
	}
	return nil
}

// runSessions lists stored sessions, most recently updated first.
func runSessions(stdout, stderr io.Writer, configPath, outputFmt string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.SessionsDir, logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	summaries, err := store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(stdout, "No stored sessions.")
		return nil
	}
	for _, s := range summaries {
		query := s.InitialQuery
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Fprintf(stdout, "%s  %s  queries=%d  %s\n",
			s.SessionID, s.LastUpdated.Format("2006-01-02 15:04"), s.TotalQueries, query)
	}
	return nil
}

// runExport renders a stored session as a standalone HTML report. With
// no output path the document goes to stdout.
func runExport(stdout, stderr io.Writer, configPath, sessionID, outPath string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.SessionsDir, logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	sess, err := store.Load(sessionID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	html, err := export.HTML(sess)
	if err != nil {
		return fmt.Errorf("render session %s: %w", sessionID, err)
	}

	if outPath == "" {
		fmt.Fprint(stdout, html)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(stdout, "Exported session %s to %s\n", sessionID, outPath)
	return nil
}

// runIngest imports a markdown document into the local index, one
// embedded chunk per heading section. Re-ingesting the same file
// replaces its earlier chunks.
func runIngest(ctx context.Context, stdout, stderr io.Writer, configPath, filePath string) error {
	logger := newLogger(stderr, slog.LevelInfo)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := index.NewStore(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	embedder := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
	})

	ingester := ingest.NewMarkdownIngester(store, embedder, logger)
	count, err := ingester.IngestFile(ctx, filePath)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", filePath, err)
	}

	fmt.Fprintf(stdout, "Ingested %d chunks from %s\n", count, filePath)
	return nil
}

// app bundles the wired research loop and everything it owns.
type app struct {
	agent    *agent.Agent
	sessions *session.Store
	close    func()
}

// buildApp loads config and wires the full research loop: model
// routing, session store, document index, and the tool registry.
func buildApp(stdin io.Reader, stdout, stderr io.Writer, configPath string) (*app, error) {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		// ParseLogLevel is already validated by config.Validate, so
		// this error path should be unreachable in practice.
		level, _ = config.ParseLogLevel(cfg.LogLevel)
	}
	logger := newLogger(stderr, level)
	logger.Debug("config loaded", "path", cfgPath)

	client := createLLMClient(cfg, logger)

	sessions, err := session.NewStore(cfg.SessionsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	indexStore, err := index.NewStore(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	embedder := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
	})

	registry := tools.NewRegistry()
	registry.Register(index.NewSearchTool(indexStore, embedder, logger))
	registry.Register(arxiv.NewTool(logger))
	registry.Register(fetch.NewReader(fetch.New(), client, cfg.Models.Default, logger))
	registry.Register(tools.NewAskUser(stdin, stdout, logger))

	// Web search needs at least one configured provider.
	manager := search.NewManager(cfg.Search.Primary)
	if cfg.Search.Brave.Configured() {
		manager.Register(search.NewBrave(cfg.Search.Brave.APIKey))
	}
	if cfg.Search.SearXNG.Configured() {
		manager.Register(search.NewSearXNG(cfg.Search.SearXNG.BaseURL))
	}
	if manager.Configured() {
		registry.Register(search.NewTool(manager, logger))
	} else {
		logger.Info("no web search provider configured, search_web disabled")
	}

	a := agent.New(client, cfg.Models.Default, registry, sessions, cfg.Agent.MaxIterations, logger)

	return &app{
		agent:    a,
		sessions: sessions,
		close: func() {
			if err := indexStore.Close(); err != nil {
				logger.Warn("close index", "error", err)
			}
		},
	}, nil
}

// newLogger builds the process logger. Logs go to stderr as text so
// stdout is reserved for answers and reports.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		// Running without a config file is fine; defaults cover local
		// Ollama plus the zero-setup tools.
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// createLLMClient wires the multi-provider model router. Ollama is the
// fallback for models with no explicit provider mapping.
func createLLMClient(cfg *config.Config, logger *slog.Logger) llm.Client {
	opts := llm.Options{
		Temperature: cfg.Agent.Temperature,
		MaxTokens:   cfg.Agent.MaxTokens,
	}

	ollamaClient := llm.NewOllamaClient(cfg.Models.OllamaURL, opts)
	multi := llm.NewMultiClient(ollamaClient)
	multi.AddProvider("ollama", ollamaClient)

	if cfg.Models.OpenAI.Configured() {
		openaiClient := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:    cfg.Models.OpenAI.BaseURL,
			APIKey:     cfg.Models.OpenAI.APIKey,
			APIVersion: cfg.Models.OpenAI.APIVersion,
			Azure:      cfg.Models.OpenAI.Azure,
		}, opts, logger)
		multi.AddProvider("openai", openaiClient)
		logger.Debug("OpenAI provider configured", "azure", cfg.Models.OpenAI.Azure)
	}

	for _, m := range cfg.Models.Available {
		multi.AddModel(m.Name, m.Provider)
	}

	return multi
}
