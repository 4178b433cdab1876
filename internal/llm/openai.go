package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/delv-sh/delv/internal/httpkit"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig describes an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	// BaseURL is the API root. For Azure deployments this is the full
	// deployment URL (".../openai/deployments/<name>"); the model field
	// is then omitted from requests because the deployment selects it.
	BaseURL string

	// APIKey authenticates requests. Azure uses the api-key header,
	// everything else a bearer token.
	APIKey string

	// APIVersion is the api-version query parameter (Azure only).
	APIVersion string

	// Azure switches URL construction and auth to Azure conventions.
	Azure bool
}

// OpenAIClient is a client for OpenAI-compatible chat completion APIs,
// including Azure OpenAI deployments.
type OpenAIClient struct {
	cfg        OpenAIConfig
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig, opts Options, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// Model responses can take significant time before headers arrive
	// (long prompts, reasoning). Use a generous response header timeout
	// and no overall client timeout; ctx deadlines control cancellation.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	return &OpenAIClient{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With("provider", "openai"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithTransport(t),
		),
	}
}

// openaiRequest is the chat completions request body.
type openaiRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// openaiResponse is the chat completions response body.
type openaiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) endpoint() string {
	if c.cfg.Azure {
		url := c.cfg.BaseURL + "/chat/completions"
		if c.cfg.APIVersion != "" {
			url += "?api-version=" + c.cfg.APIVersion
		}
		return url
	}
	return c.cfg.BaseURL + "/chat/completions"
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	req := openaiRequest{
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
	// Azure picks the model from the deployment URL.
	if !c.cfg.Azure {
		req.Model = model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "request payload", "body", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Azure {
		httpReq.Header.Set("api-key", c.cfg.APIKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, errBody)
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if or.Error != nil {
		return nil, fmt.Errorf("API error: %s", or.Error.Message)
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	c.logger.Debug("chat completed",
		"model", or.Model,
		"input_tokens", or.Usage.PromptTokens,
		"output_tokens", or.Usage.CompletionTokens,
		"duration", time.Since(start).Truncate(time.Millisecond),
	)

	return &ChatResponse{
		Model:        or.Model,
		CreatedAt:    time.Unix(or.Created, 0),
		Message:      or.Choices[0].Message,
		InputTokens:  or.Usage.PromptTokens,
		OutputTokens: or.Usage.CompletionTokens,
	}, nil
}

// Ping checks the models endpoint. Azure deployments have no cheap
// list endpoint, so Ping only verifies the base URL is well-formed.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if c.cfg.Azure {
		if c.cfg.BaseURL == "" {
			return fmt.Errorf("azure base URL not configured")
		}
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d", resp.StatusCode)
	}
	return nil
}
