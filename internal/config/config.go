// Package config handles delv configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the research loop. Zero-valued fields in the config file
// fall back to these.
const (
	// DefaultMaxIterations caps reasoning iterations per task.
	DefaultMaxIterations = 50

	// DefaultMaxTokens bounds a single model response.
	DefaultMaxTokens = 5000

	// DefaultSessionsDir is where session documents are stored.
	DefaultSessionsDir = "research_sessions"

	// DefaultIndexPath is the document index database file.
	DefaultIndexPath = "delv-index.db"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./delv.yaml, ~/.config/delv/config.yaml, /etc/delv/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"delv.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "delv", "config.yaml"))
	}

	paths = append(paths, "/etc/delv/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all delv configuration.
type Config struct {
	Agent       AgentConfig      `yaml:"agent"`
	Models      ModelsConfig     `yaml:"models"`
	Search      SearchConfig     `yaml:"search"`
	Embeddings  EmbeddingsConfig `yaml:"embeddings"`
	SessionsDir string           `yaml:"sessions_dir"`
	IndexPath   string           `yaml:"index_path"`
	LogLevel    string           `yaml:"log_level"`
}

// AgentConfig holds the research loop knobs. The agent reads these once
// at construction and never mutates them.
type AgentConfig struct {
	// MaxIterations is the hard cap on reasoning iterations per task.
	MaxIterations int `yaml:"max_iterations"`
	// MaxTokens bounds a single model response.
	MaxTokens int `yaml:"max_tokens"`
	// Temperature for generation. Zero means deterministic.
	Temperature float64 `yaml:"temperature"`
}

// ModelsConfig defines model routing settings.
type ModelsConfig struct {
	Default   string        `yaml:"default"`
	OllamaURL string        `yaml:"ollama_url"`
	OpenAI    OpenAIConfig  `yaml:"openai"`
	Available []ModelConfig `yaml:"available"`
}

// OpenAIConfig defines an OpenAI-compatible chat completions endpoint.
// Azure deployments set base_url to the full deployment URL and azure
// to true (API key goes in the api-key header instead of a bearer token).
type OpenAIConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"` // Azure only (query parameter)
	Azure      bool   `yaml:"azure"`
}

// Configured reports whether an OpenAI-compatible endpoint is set up.
func (c OpenAIConfig) Configured() bool {
	return c.APIKey != ""
}

// ModelConfig maps a model name to its provider.
type ModelConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"` // ollama, openai
}

// SearchConfig defines web search provider settings.
type SearchConfig struct {
	// Primary is the default provider name ("brave" or "searxng").
	Primary string        `yaml:"primary"`
	Brave   BraveConfig   `yaml:"brave"`
	SearXNG SearXNGConfig `yaml:"searxng"`
}

// BraveConfig holds Brave Search API settings.
type BraveConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Brave API key is set.
func (c BraveConfig) Configured() bool {
	return c.APIKey != ""
}

// SearXNGConfig holds SearXNG instance settings.
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether a SearXNG instance URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.BaseURL != ""
}

// EmbeddingsConfig defines embedding generation settings for the
// document index.
type EmbeddingsConfig struct {
	Model   string `yaml:"model"`    // e.g. nomic-embed-text
	BaseURL string `yaml:"base_url"` // Ollama URL (defaults to models.ollama_url)
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables so API keys can live outside the file.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{
		Models: ModelsConfig{
			Default:   "qwen3:4b",
			OllamaURL: "http://localhost:11434",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = DefaultMaxIterations
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = DefaultMaxTokens
	}
	if c.SessionsDir == "" {
		c.SessionsDir = DefaultSessionsDir
	}
	if c.IndexPath == "" {
		c.IndexPath = DefaultIndexPath
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = c.Models.OllamaURL
	}
}

// Validate rejects values the research loop cannot run with.
func (c *Config) Validate() error {
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.MaxTokens <= 0 {
		return fmt.Errorf("agent.max_tokens must be positive, got %d", c.Agent.MaxTokens)
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature must be in [0, 2], got %g", c.Agent.Temperature)
	}
	return nil
}
