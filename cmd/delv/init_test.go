package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/delv-sh/delv/internal/config"
)

// clearUmask sets the process umask to 0 so file permission assertions
// are deterministic. It restores the original umask when the test
// completes.
func clearUmask(t *testing.T) {
	t.Helper()
	old := syscall.Umask(0)
	t.Cleanup(func() { syscall.Umask(old) })
}

func TestRunInit_FreshDirectory(t *testing.T) {
	clearUmask(t)
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	out := buf.String()

	info, err := os.Stat(filepath.Join(dir, config.DefaultSessionsDir))
	if err != nil {
		t.Errorf("expected sessions directory: %v", err)
	} else if !info.IsDir() {
		t.Errorf("%s is not a directory", config.DefaultSessionsDir)
	}

	// The config may hold API keys, so it must be owner-only.
	cfgInfo, err := os.Stat(filepath.Join(dir, "delv.yaml"))
	if err != nil {
		t.Fatalf("delv.yaml not created: %v", err)
	}
	if got := cfgInfo.Mode().Perm(); got != 0o600 {
		t.Errorf("delv.yaml permissions = %o, want 0600", got)
	}

	if !strings.Contains(out, "✓") {
		t.Error("output missing ✓ marker for created files")
	}
	if !strings.Contains(out, "delv.yaml") {
		t.Error("output missing delv.yaml")
	}
}

func TestRunInit_GeneratedConfigLoads(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	cfg, err := config.Load(filepath.Join(dir, "delv.yaml"))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Agent.MaxIterations != config.DefaultMaxIterations {
		t.Errorf("max_iterations = %d, want %d", cfg.Agent.MaxIterations, config.DefaultMaxIterations)
	}
	if cfg.Models.OllamaURL == "" {
		t.Error("generated config missing ollama_url")
	}
}

func TestRunInit_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}

	// Write a sentinel so we can verify the second run does not
	// overwrite user customizations.
	sentinel := []byte("# customized\n")
	if err := os.WriteFile(filepath.Join(dir, "delv.yaml"), sentinel, 0o600); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	buf.Reset()
	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("second runInit failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "delv.yaml"))
	if err != nil {
		t.Fatalf("read delv.yaml after second run: %v", err)
	}
	if !bytes.Equal(got, sentinel) {
		t.Error("second runInit overwrote existing delv.yaml")
	}
}
