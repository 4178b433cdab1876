package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/delv-sh/delv/internal/config"
	"github.com/delv-sh/delv/internal/defaults"
)

// runInit initializes a delv working directory. It creates the
// sessions directory and writes an example config. Existing files are
// never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing delv workspace in %s\n", dir)

	sessionsDir := filepath.Join(dir, config.DefaultSessionsDir)
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", sessionsDir, err)
	}
	fmt.Fprintf(w, "  ✓ %s\n", sessionsDir)

	// The config may hold API keys, so keep it owner-only.
	configPath := filepath.Join(dir, "delv.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit delv.yaml to configure models and search providers,")
	fmt.Fprintln(w, "then run `delv` to start a research session.")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist, so init never overwrites user customizations.
func writeIfMissing(path string, content []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, skip
	}
	return os.WriteFile(path, content, perm)
}
