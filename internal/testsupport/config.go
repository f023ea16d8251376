package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lingosub/internal/config"
	"lingosub/internal/deps"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory, with an
// ephemeral API port, English source and one Spanish target.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectsDir = filepath.Join(base, "projects")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.Languages.Source = "en"
	cfg.Languages.Supported = []string{"en", "es"}
	cfg.Workflow.PollInterval = 1

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory NewConfig rooted its paths in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ProjectsDir)
}

// WithLanguages sets the source language and the supported set.
func WithLanguages(source string, supported ...string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Languages.Source = source
		cfg.Languages.Supported = supported
	}
}

// WithConfig applies an arbitrary edit.
func WithConfig(edit func(*config.Config)) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		edit(cfg)
	}
}

// WithStubbedBinaries puts no-op executables for names first on PATH for the
// rest of the test. Without names, every pipeline tool is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", deps.UVX}
		}
		binDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", strings.Join([]string{binDir, os.Getenv("PATH")}, string(os.PathListSeparator)))
	}
}
